// Package notifications delivers upload events to ntfy.
//
// The ntfy implementation publishes to the topic configured in config.toml
// and degrades to a no-op when notifications are disabled. MessageSink plugs
// the service into the tracker's message stream so upload successes and
// failures reach a phone without extra wiring in command code.
package notifications
