// Package preflight provides readiness checks for the directories, session,
// journal and backend that rafcdn depends on.
//
// The CLI "rafcdn check" command runs RunAll and prints each Result. The
// upload command does not run them; it fails on the first real error instead.
package preflight
