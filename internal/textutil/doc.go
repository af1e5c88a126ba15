// Package textutil provides small text-similarity helpers used by the
// project resolver's fuzzy-match tier.
package textutil
