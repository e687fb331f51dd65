package jsonstream

import (
	"github.com/sirupsen/logrus"
)

// DefaultMaxBufferSize is the default cap on the internal scan buffer.
//
// Exceeding it indicates either a record larger than any tshark emits in
// practice or adversarial/garbage input that never closes its outer brace.
const DefaultMaxBufferSize = 1024 * 1024 // 1 MiB

// Extractor is an incremental scanner that splits a text stream into
// complete top-level JSON object substrings.
//
// It tracks brace depth together with string and escape state, so braces
// and quotes inside string literals never affect boundary detection. The
// zero value is not usable; construct with NewExtractor.
//
// Extractor is not safe for concurrent use. The producing goroutine is
// expected to be the sole caller of Feed.
type Extractor struct {
	maxBufferSize int

	buf   []byte
	pos   int // next byte to scan
	start int // offset of the opening brace at depth 1

	depth         int
	inString      bool
	escapePending bool

	overflows uint64
}

// NewExtractor creates an Extractor with the default buffer cap.
func NewExtractor() *Extractor {
	return NewExtractorSize(DefaultMaxBufferSize)
}

// NewExtractorSize creates an Extractor whose internal buffer never grows
// beyond maxBufferSize bytes. Sizes below 2 fall back to the default.
func NewExtractorSize(maxBufferSize int) *Extractor {
	if maxBufferSize < 2 {
		maxBufferSize = DefaultMaxBufferSize
	}
	return &Extractor{maxBufferSize: maxBufferSize}
}

// Feed appends chunk to the scan buffer and returns every record substring
// completed by it, in stream order. The returned slice is empty when no
// record closed within this chunk.
//
// A record may span any number of Feed calls, and one call may complete
// many records. Each returned string is an independent copy; it remains
// valid after subsequent Feed calls.
func (e *Extractor) Feed(chunk string) []string {
	e.buf = append(e.buf, chunk...)

	if len(e.buf) > e.maxBufferSize {
		e.truncate()
	}

	var records []string
	for e.pos < len(e.buf) {
		c := e.buf[e.pos]

		switch {
		case e.escapePending:
			e.escapePending = false
		case c == '\\' && e.inString:
			e.escapePending = true
		case c == '"':
			e.inString = !e.inString
		case e.inString:
			// Braces inside string literals carry no structure.
		case c == '{':
			if e.depth == 0 {
				e.start = e.pos
			}
			e.depth++
		case c == '}':
			if e.depth > 0 {
				e.depth--
				if e.depth == 0 {
					records = append(records, string(e.buf[e.start:e.pos+1]))
					e.buf = append(e.buf[:0], e.buf[e.pos+1:]...)
					e.pos = -1
					e.start = 0
				}
			}
			// A stray closer at depth 0 is garbage between records.
		}

		e.pos++
	}

	return records
}

// truncate drops the leading half of the buffer and resets all scanner
// state. Any in-flight partial record is lost; scanning re-synchronizes on
// the next opening brace at depth 0.
func (e *Extractor) truncate() {
	kept := e.maxBufferSize / 2
	dropped := len(e.buf) - kept
	e.buf = append(e.buf[:0], e.buf[len(e.buf)-kept:]...)
	e.pos = 0
	e.start = 0
	e.depth = 0
	e.inString = false
	e.escapePending = false
	e.overflows++

	logrus.WithFields(logrus.Fields{
		"function":      "Extractor.truncate",
		"dropped_bytes": dropped,
		"kept_bytes":    kept,
		"overflows":     e.overflows,
	}).Warn("Scan buffer exceeded maximum size, truncating")
}

// BufferedBytes returns the number of bytes currently held in the scan
// buffer. It never exceeds the configured maximum.
func (e *Extractor) BufferedBytes() int {
	return len(e.buf)
}

// Overflows returns how many times the buffer cap was hit and the scanner
// reset. A nonzero value means at least one partial record was discarded.
func (e *Extractor) Overflows() uint64 {
	return e.overflows
}

// Reset discards all buffered data and returns the scanner to its initial
// state. The overflow counter is preserved.
func (e *Extractor) Reset() {
	e.buf = e.buf[:0]
	e.pos = 0
	e.start = 0
	e.depth = 0
	e.inString = false
	e.escapePending = false
}
