// Package queue persists ingestion work and its outcomes in SQLite.
//
// The Store owns three tables. Queue holds one row per source path awaiting
// (or retrying) classification; a row is ready while LastFailure is NULL and
// failed otherwise. Documents holds the immutable classification outcomes and
// DocumentClasses the taxonomy used to build classifier prompts.
//
// Every queue mutation is a single-row statement committed on its own so the
// persisted state stays consistent per row across crashes. The retry counter
// only moves forward through Sweep; Fail merely stamps the failure time. The
// drain loop is the only caller that writes Documents for ready entries, and
// CommitDocument removes the entry in the same transaction that stores the
// outcome, and writes nothing when another drainer already removed it.
// CommitTerminal does the same for sweep-exhausted entries, guarded
// by the failure marker so a re-enqueued file is classified instead.
//
// Schema changes are goose migrations under migrations/.
package queue
