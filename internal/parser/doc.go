// Package parser implements Stage 4's transcript classification: the
// five-tier task/note category detector, the multi-task splitter, and the
// content-preservation helpers that decide whether a transcript is
// rewritten or archived verbatim (spec.md §4.5).
package parser
