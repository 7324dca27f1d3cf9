// Package plugins dispatches stored documents to deployment-owned handlers
// keyed by document class.
//
// Handlers are discovered once at startup: every executable named
// docClassHandler_<ClassID> in the plugin directory becomes an ExecHandler
// that receives the stored document row as JSON on stdin. Dispatch skips the
// sentinel values classifiers use for "no class".
package plugins
