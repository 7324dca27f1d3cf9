// Package preflight provides readiness checks for the filesystem paths and
// endpoints docmonitor depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs a warning per failed check.
//     Failures never block startup; entries that hit the same problem are
//     retried by the sweep once the operator fixes it.
//   - The CLI "docmonitor config validate" command prints every result.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
