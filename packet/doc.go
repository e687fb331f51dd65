// Package packet defines the structured packet event model produced from
// dissected capture records, the media-traffic classifier, and the bounded
// event queue handed to downstream consumers.
//
// Records arrive as tshark -T json objects carrying a _source.layers map in
// which every requested field is a protocol-grouped array of strings.
// ParseRecord decodes and validates one such record into an immutable Event;
// any missing or out-of-range field yields a typed error so the caller can
// count it and move on.
//
// The EventQueue favors recency over completeness: when full, it drops the
// oldest event to make room for the newest and never blocks the producer.
package packet
