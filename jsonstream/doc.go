// Package jsonstream extracts complete top-level JSON objects from an
// arbitrarily chunked text stream.
//
// The upstream dissector (tshark with -T json -l) writes records to a pipe
// with no framing guarantee: a single read may contain a fragment of one
// record, several complete records, or garbage. The Extractor maintains a
// persistent single-pass scanner across Feed calls and emits each record
// exactly once, as soon as its outermost brace closes.
//
// Memory is bounded. The internal buffer never exceeds a configured maximum
// (1 MiB by default); on overflow the buffer is truncated to its trailing
// half and the scanner state is reset, sacrificing at most one in-flight
// partial record. Extraction of subsequent well-formed records resumes
// normally.
//
// The Extractor does not validate JSON beyond brace/string balance. Callers
// are expected to decode each emitted substring and discard the ones that
// fail, so one malformed record never stalls the stream.
package jsonstream
