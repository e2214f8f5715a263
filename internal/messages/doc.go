// Package messages carries transient, categorized notices (info, success,
// error) from the upload tracker to whatever surface displays them: the
// dashboard's single-message board, the terminal, or ntfy.
package messages
