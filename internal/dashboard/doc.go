// Package dashboard serves a local, read-only JSON view of the upload
// tracker: the merged record list with stats and the progress indicator,
// aggregate stats alone, and the currently visible message. A Poller keeps
// the projection fresh by restoring journaled records and reloading server
// history on an interval.
package dashboard
