// Command rafcdn uploads video files to the rafcdn backend and tracks them.
//
// Uploads run one at a time with a progress bar; each file is validated
// before any network work, and the merged list of local attempts and server
// history is printed when the batch finishes. Other subcommands show that
// list, manage the session, run a local dashboard API and check readiness.
package main
