package packet

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// MaxFrameLength is the largest frame length accepted from the dissector,
// matching the 16-bit length space of the capture format.
const MaxFrameLength = 65535

// RTPInfo carries the RTP fields dissected from a media packet.
type RTPInfo struct {
	Seq         uint16 // sequence number, interpreted modulo 65536
	Timestamp   uint32 // media clock timestamp
	PayloadType uint8  // 0..127
	Marker      bool
}

// Event is one structured packet event. It is immutable once constructed:
// the analysis path builds it, tags it, and hands it to the queue by value.
type Event struct {
	FrameNumber uint64  `json:"frame_number"`
	Timestamp   float64 `json:"timestamp"` // capture-relative, seconds
	Length      int     `json:"length"`    // frame length, bytes
	SrcIP       string  `json:"src_ip"`
	DstIP       string  `json:"dst_ip"`
	SrcPort     int     `json:"src_port"`
	DstPort     int     `json:"dst_port"`
	IsMedia     bool    `json:"is_media"`
	HasRTP      bool    `json:"has_rtp"`
	RTP         RTPInfo `json:"rtp"`
}

// rawRecord mirrors the tshark -T json record shape. Each protocol layer
// groups its requested fields as arrays of strings.
type rawRecord struct {
	Source struct {
		Layers struct {
			Frame map[string][]string `json:"frame"`
			IP    map[string][]string `json:"ip"`
			UDP   map[string][]string `json:"udp"`
			RTP   map[string][]string `json:"rtp"`
		} `json:"layers"`
	} `json:"_source"`
}

// ParseRecord decodes and validates one dissected record into an Event.
//
// The record must carry a _source.layers structure with frame number,
// capture-relative timestamp, and a frame length in 1..65535. IP and UDP
// fields default to empty when their layers are absent. When an rtp layer
// is present its sequence number and payload type are range-checked; a
// violation rejects the whole record.
//
// Errors wrap the package sentinels, so callers can classify failures with
// errors.Is while still seeing the offending value.
func ParseRecord(data []byte) (Event, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}

	layers := raw.Source.Layers
	if layers.Frame == nil && layers.IP == nil && layers.UDP == nil && layers.RTP == nil {
		return Event{}, ErrMissingLayers
	}

	frameNumber, err := fieldUint(layers.Frame, "frame.number")
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	timestamp, err := fieldFloat(layers.Frame, "frame.time_relative")
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	frameLen, err := fieldInt(layers.Frame, "frame.len")
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	if frameLen <= 0 || frameLen > MaxFrameLength {
		return Event{}, fmt.Errorf("%w: %d", ErrFrameLength, frameLen)
	}

	ev := Event{
		FrameNumber: frameNumber,
		Timestamp:   timestamp,
		Length:      frameLen,
		SrcIP:       fieldString(layers.IP, "ip.src"),
		DstIP:       fieldString(layers.IP, "ip.dst"),
	}

	// Port fields default to 0 when the udp layer is missing or partial;
	// such packets simply never classify as media.
	ev.SrcPort, _ = fieldInt(layers.UDP, "udp.srcport")
	ev.DstPort, _ = fieldInt(layers.UDP, "udp.dstport")

	if len(layers.RTP) > 0 {
		rtp, err := parseRTP(layers.RTP)
		if err != nil {
			return Event{}, err
		}
		ev.HasRTP = true
		ev.RTP = rtp
	}

	return ev, nil
}

// parseRTP extracts and range-checks the RTP fields of a record.
func parseRTP(layer map[string][]string) (RTPInfo, error) {
	seq, err := fieldInt(layer, "rtp.seq")
	if err != nil {
		return RTPInfo{}, fmt.Errorf("%w: %v", ErrSequenceRange, err)
	}
	if seq < 0 || seq > 65535 {
		return RTPInfo{}, fmt.Errorf("%w: %d", ErrSequenceRange, seq)
	}

	payloadType, err := fieldInt(layer, "rtp.p_type")
	if err != nil {
		return RTPInfo{}, fmt.Errorf("%w: %v", ErrPayloadTypeRange, err)
	}
	if payloadType < 0 || payloadType > 127 {
		return RTPInfo{}, fmt.Errorf("%w: %d", ErrPayloadTypeRange, payloadType)
	}

	// Media timestamp and marker are informational; missing values
	// default to zero rather than rejecting the record.
	mediaTS, _ := fieldUint(layer, "rtp.timestamp")
	marker := fieldString(layer, "rtp.marker") == "1"

	return RTPInfo{
		Seq:         uint16(seq),
		Timestamp:   uint32(mediaTS),
		PayloadType: uint8(payloadType),
		Marker:      marker,
	}, nil
}

// fieldString returns the first value of a layer field, or "" when absent.
func fieldString(layer map[string][]string, key string) string {
	values := layer[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func fieldInt(layer map[string][]string, key string) (int, error) {
	s := fieldString(layer, key)
	if s == "" {
		return 0, fmt.Errorf("field %s missing", key)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("field %s: %v", key, err)
	}
	return v, nil
}

func fieldUint(layer map[string][]string, key string) (uint64, error) {
	s := fieldString(layer, key)
	if s == "" {
		return 0, fmt.Errorf("field %s missing", key)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %v", key, err)
	}
	return v, nil
}

func fieldFloat(layer map[string][]string, key string) (float64, error) {
	s := fieldString(layer, key)
	if s == "" {
		return 0, fmt.Errorf("field %s missing", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %v", key, err)
	}
	return v, nil
}
