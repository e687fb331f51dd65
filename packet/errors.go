package packet

import "errors"

// Sentinel errors for record parsing.
// These errors enable reliable classification using errors.Is().

var (
	// ErrNotJSON indicates the record substring is not a decodable JSON object.
	ErrNotJSON = errors.New("record is not valid JSON")

	// ErrMissingLayers indicates the record has no _source.layers structure.
	ErrMissingLayers = errors.New("record has no dissection layers")

	// ErrInvalidFrame indicates frame number, timestamp, or length is absent
	// or not numeric.
	ErrInvalidFrame = errors.New("invalid frame information")

	// ErrFrameLength indicates a frame length outside 1..65535 bytes.
	ErrFrameLength = errors.New("frame length out of range")

	// ErrSequenceRange indicates an RTP sequence number outside 0..65535.
	ErrSequenceRange = errors.New("RTP sequence number out of range")

	// ErrPayloadTypeRange indicates an RTP payload type outside 0..127.
	ErrPayloadTypeRange = errors.New("RTP payload type out of range")
)
