package jsonstream

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedSingleRecord(t *testing.T) {
	e := NewExtractor()

	records := e.Feed(`{"a": 1}`)
	require.Len(t, records, 1)
	assert.Equal(t, `{"a": 1}`, records[0])
	assert.Equal(t, 0, e.BufferedBytes())
}

func TestFeedMultipleRecordsInOneChunk(t *testing.T) {
	e := NewExtractor()

	records := e.Feed(`{"a": 1}{"b": 2}{"c": 3}`)
	require.Len(t, records, 3)
	assert.Equal(t, `{"a": 1}`, records[0])
	assert.Equal(t, `{"b": 2}`, records[1])
	assert.Equal(t, `{"c": 3}`, records[2])
}

func TestFeedRecordSpanningChunks(t *testing.T) {
	e := NewExtractor()

	records := e.Feed(`{"nested": {"x": `)
	assert.Empty(t, records)

	records = e.Feed(`[1, 2, 3]}`)
	assert.Empty(t, records)

	records = e.Feed(`}`)
	require.Len(t, records, 1)
	assert.Equal(t, `{"nested": {"x": [1, 2, 3]}}`, records[0])
}

// TestFeedArbitraryChunkBoundaries verifies that splitting the same input
// at every possible granularity, including mid-string and mid-escape,
// always yields the same records.
func TestFeedArbitraryChunkBoundaries(t *testing.T) {
	input := `{"a": "br{ce}s"}{"b": "esc\\aped \"quote\""}{"c": {"d": 4}}`
	expected := []string{
		`{"a": "br{ce}s"}`,
		`{"b": "esc\\aped \"quote\""}`,
		`{"c": {"d": 4}}`,
	}

	for _, size := range []int{1, 2, 3, 5, 7, 16, len(input)} {
		t.Run(fmt.Sprintf("chunk_size_%d", size), func(t *testing.T) {
			e := NewExtractor()

			var records []string
			for i := 0; i < len(input); i += size {
				end := i + size
				if end > len(input) {
					end = len(input)
				}
				records = append(records, e.Feed(input[i:end])...)
			}

			require.Equal(t, expected, records)
			for _, rec := range records {
				var v map[string]any
				assert.NoError(t, json.Unmarshal([]byte(rec), &v))
			}
		})
	}
}

// TestFeedBracesInsideStrings verifies that braces and quotes inside string
// literals never affect depth counting.
func TestFeedBracesInsideStrings(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"open brace in string", `{"k": "{{{"}`},
		{"close brace in string", `{"k": "}}}"}`},
		{"escaped quote then brace", `{"k": "a\"}b"}`},
		{"escaped backslash before quote", `{"k": "a\\"}`},
		{"mixed", `{"k": "{\"}{\"}"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor()
			records := e.Feed(tt.input)
			require.Len(t, records, 1)
			assert.Equal(t, tt.input, records[0])

			var v map[string]any
			assert.NoError(t, json.Unmarshal([]byte(records[0]), &v))
		})
	}
}

func TestFeedGarbageBetweenRecords(t *testing.T) {
	e := NewExtractor()

	// tshark -T json wraps records in a top-level array; the separators
	// and stray closers must be skipped without breaking extraction.
	records := e.Feed("[\n{\"a\": 1}\n,\n{\"b\": 2}\n]\n")
	require.Len(t, records, 2)
	assert.Equal(t, `{"a": 1}`, records[0])
	assert.Equal(t, `{"b": 2}`, records[1])
}

// TestFeedBufferOverflow verifies bounded memory under input that never
// closes its outer brace, and that extraction recovers afterwards.
func TestFeedBufferOverflow(t *testing.T) {
	const maxSize = 256
	e := NewExtractorSize(maxSize)

	// An object that never closes, several times the buffer cap.
	e.Feed(`{"never_closes": "` + strings.Repeat("x", 4*maxSize))
	assert.LessOrEqual(t, e.BufferedBytes(), maxSize)
	assert.Greater(t, e.Overflows(), uint64(0))

	// The stranded tail is plain garbage at depth 0 after the state
	// reset; a fresh record extracts normally.
	records := e.Feed(`{"recovered": true}`)
	require.Len(t, records, 1)
	assert.Equal(t, `{"recovered": true}`, records[0])
}

func TestFeedEmptyChunk(t *testing.T) {
	e := NewExtractor()

	assert.Empty(t, e.Feed(""))
	assert.Empty(t, e.Feed(`{"a":`))
	assert.Empty(t, e.Feed(""))

	records := e.Feed(`1}`)
	require.Len(t, records, 1)
	assert.Equal(t, `{"a":1}`, records[0])
}

func TestReset(t *testing.T) {
	e := NewExtractor()

	e.Feed(`{"partial": `)
	assert.Greater(t, e.BufferedBytes(), 0)

	e.Reset()
	assert.Equal(t, 0, e.BufferedBytes())

	records := e.Feed(`{"fresh": 1}`)
	require.Len(t, records, 1)
	assert.Equal(t, `{"fresh": 1}`, records[0])
}
