// Package analyzer implements Stage 4's per-record enrichment (spec.md
// §4.7): LLM-backed title generation with truncation fallback, a
// keyword-driven tag detector, an LLM duration estimator with a safe
// default, a three-tier icon selector, and a content formatter that only
// collapses whitespace and re-breaks sentences in note bodies (no LLM) while
// stripping meta-commentary from task bodies with an optional LLM cleanup.
package analyzer
