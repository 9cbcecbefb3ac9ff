// Package registry tracks live delivery connections for real-time
// notification push.
//
// The registry keeps at most one connection per recipient identity; a new
// Connect for the same identity replaces (and closes) the previous
// connection. Push is fire-and-forget: it reports delivery with a boolean
// rather than an error, and a failed write evicts the dead connection as a
// side effect. A periodic sweep removes connections that are closed or whose
// heartbeat is older than the configured TTL.
//
// Delivery is best-effort by design: there is no queuing, retry, or
// backpressure for absent, slow, or failed connections.
package registry
