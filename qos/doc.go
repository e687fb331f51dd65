// Package qos derives live quality-of-service metrics for real-time media
// traffic from a stream of timestamped, sequence-numbered samples.
//
// The Engine maintains two bounded sliding windows inside a session-scoped
// Statistics value: jitter samples, ordered by arrival and capped by count,
// and bitrate samples, capped by wall-clock age. From these it computes
// jitter, delay, latency, bitrate, and packet loss on demand.
//
// Every derivation degrades to a neutral zero on insufficient data or a
// degenerate time span; metric computation never fails and never aborts
// the session.
//
// The Engine itself is not synchronized. A single analysis goroutine is the
// sole mutator, and the owning session controller serializes snapshot reads
// against it, mirroring the concurrency contract of the capture pipeline.
package qos
