// Package analysis performs offline quality analysis of saved capture
// files.
//
// Where the live pipeline folds packets into a single rolling window as
// they arrive, offline analysis reads a whole pcap file back through
// tshark and groups its RTP packets into streams by endpoint pair. Every
// stream gets its own jitter, loss, bitrate, and delay figures, the
// capture gets UDP conversation totals and a protocol breakdown, and the
// combined result is graded with a 0..100 quality score.
//
// The record pass reuses the live pipeline's extractor and parser, so the
// same bounded-buffer and malformed-record guarantees apply to file input.
package analysis
