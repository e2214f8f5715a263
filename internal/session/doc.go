// Package session stores the authentication context handed to rafcdn by
// the external login flow: a session id used as the bearer token, the
// username shown in output, and the role. The backend client only needs the
// id; commands refuse to talk to the backend without a valid session.
package session
