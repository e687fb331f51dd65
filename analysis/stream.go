package analysis

import (
	"fmt"
	"sort"

	"github.com/qoswatch/qoswatch/packet"
)

// streamPacket is the per-packet slice of an RTP stream kept for offline
// derivation.
type streamPacket struct {
	seq    int
	time   float64 // capture-relative, seconds
	length int
}

// StreamMetrics are the derived figures of one RTP stream.
type StreamMetrics struct {
	JitterMs          float64 `json:"jitter_ms"`
	DelayMs           float64 `json:"delay_ms"`
	PacketLossPercent float64 `json:"packet_loss_percent"`
	BitrateMbps       float64 `json:"bitrate_mbps"`
	TotalPackets      int     `json:"total_packets"`
	ExpectedPackets   int     `json:"expected_packets"`
	DurationSeconds   float64 `json:"duration_seconds"`
}

// Stream accumulates the packets of one RTP flow.
type Stream struct {
	PayloadType uint8         `json:"payload_type"`
	PacketCount int           `json:"packet_count"`
	TotalBytes  int           `json:"total_bytes"`
	Metrics     StreamMetrics `json:"metrics"`

	packets []streamPacket
}

// streamKey identifies an RTP flow by its endpoint pair.
func streamKey(ev packet.Event) string {
	return fmt.Sprintf("%s:%d->%s:%d", ev.SrcIP, ev.SrcPort, ev.DstIP, ev.DstPort)
}

// add folds one event into the stream.
func (s *Stream) add(ev packet.Event) {
	s.packets = append(s.packets, streamPacket{
		seq:    int(ev.RTP.Seq),
		time:   ev.Timestamp,
		length: ev.Length,
	})
	s.TotalBytes += ev.Length
	s.PacketCount++
	s.PayloadType = ev.RTP.PayloadType
}

// analyze derives the stream metrics from the accumulated packets.
// Streams with fewer than two packets keep their zero metrics.
//
// Packets are ordered by sequence number first, so the expected-packet
// count is the span between the lowest and highest sequence seen, and the
// jitter figure is the mean inter-arrival time along that order.
func (s *Stream) analyze() {
	if len(s.packets) < 2 {
		return
	}

	pkts := make([]streamPacket, len(s.packets))
	copy(pkts, s.packets)
	sort.Slice(pkts, func(i, j int) bool { return pkts[i].seq < pkts[j].seq })

	var jitterSum float64
	for i := 1; i < len(pkts); i++ {
		jitterSum += (pkts[i].time - pkts[i-1].time) * 1000
	}
	jitter := jitterSum / float64(len(pkts)-1)

	expected := pkts[len(pkts)-1].seq - pkts[0].seq + 1
	var loss float64
	if expected > 0 {
		loss = float64(expected-len(pkts)) / float64(expected) * 100
	}

	duration := pkts[len(pkts)-1].time - pkts[0].time
	var bitrate float64
	if duration > 0 {
		bitrate = float64(s.TotalBytes) * 8 / duration / 1e6
	}

	s.Metrics = StreamMetrics{
		JitterMs:          jitter,
		DelayMs:           jitter / 2,
		PacketLossPercent: loss,
		BitrateMbps:       bitrate,
		TotalPackets:      len(pkts),
		ExpectedPackets:   expected,
		DurationSeconds:   duration,
	}
}
