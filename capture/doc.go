// Package capture supervises the external dissector process and drives the
// analysis pipeline from its output.
//
// The Supervisor spawns tshark with line-buffered JSON output, runs one
// producer goroutine that feeds every chunk through the record extractor,
// parses the extracted records, and hands the resulting events to the
// session controller in arrival order. That goroutine is the only mutator
// of the extractor state and of the session statistics.
//
// Before spawning, the package verifies that tshark is installed and that
// the process has capture privileges. The capture filter handed to tshark
// is sanitized against an allow-list to keep shell metacharacters out of
// the child's argument vector.
//
// Shutdown is cooperative: Stop cancels the process context, gives the
// producer a bounded grace period to drain, then kills the child.
package capture
