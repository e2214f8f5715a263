// Package uploads implements the upload tracker: it validates candidate
// files, drives one transfer at a time while keeping a locally-owned record
// per attempt, merges the server's upload history into that list without
// duplicates, and projects the merged list, status counts and progress
// indicator for display.
//
// Records only ever move uploading -> completed or uploading -> failed.
// Files that fail validation never produce a record. Collaborators (the
// transport, history source, journal and message sink) are interfaces so the
// CLI, the dashboard and tests can supply their own.
package uploads
