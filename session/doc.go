// Package session wires the analysis pipeline together for the lifetime of
// one capture session: classifier, quality metrics engine, statistics, and
// the bounded event queue.
//
// The Controller has exactly one mutating path, Record, driven by the
// single producer goroutine. Snapshot readers may run from any goroutine;
// a shared mutex is held only for the duration of copying current values,
// so a snapshot never observes a torn update and never stalls the producer
// for longer than the copy.
package session
