// Package workflow turns queue entries into classified documents.
//
// The Coordinator runs two loops. The drain loop claims ready entries one at
// a time under a processing mutex, waits for the file to stop growing, calls
// the classifier through the invocation guard, commits the Document and
// removes the entry in one transaction, then fires the best-effort side
// effects (webhook notification and per-class plugin). The retry-sweep loop
// promotes failed entries whose cooldown elapsed and terminalises entries that
// exceeded the retry ceiling by writing an unclassified Document for them. It
// never takes the processing mutex and never calls the classifier.
//
// Entry processing runs on a context detached from the stop signal so a
// classification in flight is never abandoned halfway; the loops exit at
// their next wait boundary instead.
package workflow
