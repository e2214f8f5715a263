// Package logs reads back the JSON log file written by the CLI.
//
// Tail streams the file with bounded memory, supports "last N lines" and
// resume-from-offset reads, and can poll for new lines in follow mode.
// ParseEntry and Filter turn raw lines into entries that can be narrowed to
// one upload or one run, which is how 'rafcdn logs --upload <id>' works.
package logs
