// Package watcher feeds new files into the ingestion queue, either from live
// filesystem events or from a one-shot recursive scan.
//
// Watcher registers every directory under its roots with fsnotify, creating
// missing roots first. Files created in or moved into a watched tree are
// filtered by extension and handed to the EnqueueFunc; new subdirectories are
// registered and scanned, since files can land before the watch is in place.
// Scan walks the same trees once and ResolveGlob expands `**` patterns for
// the CLI.
package watcher
