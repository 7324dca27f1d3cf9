// Package main hosts the docmonitor CLI entrypoint and command graph.
//
// The Cobra command tree starts the service, runs one-shot scans against the
// same queue and classifier, and exposes read-only views of the queue,
// documents and document classes together with configuration scaffolding.
// Heavy lifting lives in the internal packages; commands here only resolve
// configuration, open what they need and render results.
package main
