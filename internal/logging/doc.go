// Package logging assembles structured slog loggers and helpers used across
// docmonitor.
//
// Console output is rendered by tint (coloured only on terminals) and JSON
// output uses standard keys (ts, level, msg). Each output path gets its own
// handler behind a fan-out so a terminal and a log file can be written at the
// same time. Context helpers tag lines with queue entry ids, processing steps
// and correlation ids; WarnWithContext and ErrorWithContext enforce the
// event_type / error_hint / impact triplet on operator-facing lines.
package logging
