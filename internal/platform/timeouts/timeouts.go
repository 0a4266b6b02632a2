// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// SessionFetch caps the one-time current-session lookup at page mount.
const SessionFetch = 2 * time.Second

// PresenceFetch caps the participant directory read for presence decoration.
const PresenceFetch = 750 * time.Millisecond

// DirectoryLookup caps a single ticket lookup against the participant directory.
const DirectoryLookup = time.Second

// StreamHeartbeat is the interval between keep-alive comments on event streams.
const StreamHeartbeat = 25 * time.Second
