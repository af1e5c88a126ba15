// Package logging assembles structured slog loggers and formatting helpers used
// across voicepipe's pipeline stages.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can automatically
// tag log lines with session IDs, stages, and correlation IDs. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
//
// # Logging Contract
//
// Level semantics:
//   - INFO: narrative milestones plus decisions that change the final archived
//     output (transcript backend chosen, category classification, project
//     match, archive destination).
//   - WARN: degraded behavior or operator action needed (fallbacks, review
//     states, skipped files).
//   - ERROR: operation failed; will stop or retry.
//   - DEBUG: raw diagnostics, per-candidate scoring, backend payloads, and
//     decisions that do not affect the final archived record.
//
// # Required Fields by Level
//
// INFO logs must include:
//   - event_type: lifecycle event (e.g., "stage_start", "stage_complete", "status")
//
// WARN logs must include all three fields (the "WARN triad"):
//   - event_type: what happened (e.g., "project_refresh_failed")
//   - error_hint: actionable next step (e.g., "check store API token")
//   - impact: operator-facing consequence (e.g., "falling back to cached project list")
//
// Use WarnWithContext() helper to enforce the WARN triad automatically.
//
// ERROR logs must include:
//   - event_type: what failed
//   - error_hint: actionable next step
//   - error (via logging.Error()): the underlying error
//
// Use ErrorWithContext() helper to enforce error fields automatically.
//
// # Decision Logging
//
// Decision logs record choices that affect output. Required fields:
//   - decision_type: category (e.g., "category", "project_match", "backend_selection")
//   - decision_result: outcome (e.g., "task", "note", "exact_name", "fallback")
//   - decision_reason: why (e.g., "tier=2 confidence=0.91")
//   - decision_options: alternatives considered (optional)
//
// Use DecisionAttrs()/DecisionAttrsWithOptions() to build these consistently.
//
// # Common Fields
//
// Progress: progress_stage, progress_percent, progress_message, progress_eta
// Decision: decision_type, decision_result, decision_reason, decision_options
// Events: event_type (stage_start, stage_complete, stage_failure)
// Errors: error_kind, error_operation, error_detail_path, error_code, error_hint, impact
//
// Prefer these constructors over hand-rolled slog setup to ensure new
// components emit data with the same shape and routing guarantees as the rest
// of the system.
package logging
