// Package journal persists locally-owned upload records in SQLite so
// in-flight and finished uploads survive process restarts.
//
// The store satisfies uploads.Journal: the tracker saves each record when it
// starts, at sampled progress points, and when it reaches a terminal state.
// Commands and the dashboard call List to seed a tracker on startup and
// FailInterrupted, under the upload lock, to close out records left behind by
// a process that died mid-transfer.
package journal
