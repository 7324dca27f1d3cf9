// Package stability decides when a file has finished being written.
//
// Probe polls the file size at a fixed interval and reports the file stable
// once the size has stayed the same for the configured number of consecutive
// checks. A file that is missing or cannot be opened restarts the count. The
// probe gives up at the timeout or when the context is cancelled.
package stability
