// Package daemon runs docmonitor as a long-lived service.
//
// It wires the directory watcher, the workflow coordinator and the status API
// into one lifecycle guarded by a flock so only one instance processes a
// database at a time. Startup optionally scans the watched directories once so
// files that arrived while the service was down are picked up.
package daemon
