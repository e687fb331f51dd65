package analysis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rtpRecord(srcIP, dstIP, srcPort, dstPort, seq, timeRel, length, payloadType string) string {
	return `{"_source":{"layers":{` +
		`"frame":{"frame.number":["1"],` +
		`"frame.time_relative":["` + timeRel + `"],` +
		`"frame.len":["` + length + `"]},` +
		`"ip":{"ip.src":["` + srcIP + `"],"ip.dst":["` + dstIP + `"]},` +
		`"udp":{"udp.srcport":["` + srcPort + `"],"udp.dstport":["` + dstPort + `"]},` +
		`"rtp":{"rtp.seq":["` + seq + `"],"rtp.timestamp":["0"],"rtp.p_type":["` + payloadType + `"]}}}}`
}

// TestCollectStreamsGroupsByEndpoints verifies the record pass groups RTP
// packets by endpoint pair and derives per-stream metrics: a stream with
// sequences 10, 11, 13, 14 spans 5 expected packets with one missing.
func TestCollectStreamsGroupsByEndpoints(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[\n")
	times := []string{"1.000", "1.020", "1.040", "1.060"}
	for i, seq := range []string{"10", "11", "13", "14"} {
		sb.WriteString(rtpRecord("192.168.1.50", "192.168.1.10", "16500", "554",
			seq, times[i], "1000", "96"))
		sb.WriteString(",\n")
	}
	sb.WriteString(rtpRecord("192.168.1.60", "192.168.1.10", "17000", "8000",
		"1", "2.000", "500", "97"))
	sb.WriteString(",\n")
	sb.WriteString(rtpRecord("192.168.1.60", "192.168.1.10", "17000", "8000",
		"2", "2.050", "500", "97"))
	sb.WriteString("\n]\n")

	streams, err := collectStreams(strings.NewReader(sb.String()), 0)
	require.NoError(t, err)
	require.Len(t, streams, 2)

	a := streams["192.168.1.50:16500->192.168.1.10:554"]
	require.NotNil(t, a)
	assert.Equal(t, 4, a.PacketCount)
	assert.Equal(t, 4000, a.TotalBytes)
	assert.Equal(t, uint8(96), a.PayloadType)

	assert.InDelta(t, 20.0, a.Metrics.JitterMs, 1e-9)
	assert.InDelta(t, 10.0, a.Metrics.DelayMs, 1e-9)
	assert.Equal(t, 5, a.Metrics.ExpectedPackets)
	assert.Equal(t, 4, a.Metrics.TotalPackets)
	assert.InDelta(t, 20.0, a.Metrics.PacketLossPercent, 1e-9)
	assert.InDelta(t, 4000*8/0.06/1e6, a.Metrics.BitrateMbps, 1e-6)
	assert.InDelta(t, 0.06, a.Metrics.DurationSeconds, 1e-9)

	b := streams["192.168.1.60:17000->192.168.1.10:8000"]
	require.NotNil(t, b)
	assert.InDelta(t, 50.0, b.Metrics.JitterMs, 1e-9)
	assert.InDelta(t, 0.0, b.Metrics.PacketLossPercent, 1e-9)
}

func TestCollectStreamsSkipsMalformedAndNonRTP(t *testing.T) {
	stream := rtpRecord("10.0.0.1", "10.0.0.2", "17000", "554", "5", "1.0", "800", "96") +
		`{"_source":{"layers":{"frame":{"frame.number":["2"],` +
		`"frame.time_relative":["1.1"],"frame.len":["0"]}}}}` +
		`{"_source":{"layers":{"frame":{"frame.number":["3"],` +
		`"frame.time_relative":["1.2"],"frame.len":["100"]},` +
		`"udp":{"udp.srcport":["53"],"udp.dstport":["53"]}}}}` +
		rtpRecord("10.0.0.1", "10.0.0.2", "17000", "554", "6", "1.1", "800", "96")

	streams, err := collectStreams(strings.NewReader(stream), 0)
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, 2, streams["10.0.0.1:17000->10.0.0.2:554"].PacketCount)
}

func TestStreamAnalyzeSinglePacket(t *testing.T) {
	st := &Stream{}
	st.packets = []streamPacket{{seq: 1, time: 1.0, length: 100}}
	st.analyze()

	assert.Equal(t, StreamMetrics{}, st.Metrics)
}

func TestParseConversations(t *testing.T) {
	out := `================================================================================
UDP Conversations
Filter:<No Filter>
                                       |     <-      | |     ->      | |    Total    |
                                       | Frames Bytes| | Frames Bytes| | Frames Bytes|
192.168.1.50:16500 <-> 192.168.1.10:554    900 45000     1000 1200000   1900 1245000   0.000000000  10.0000
192.168.1.60:17000 <-> 192.168.1.10:8000    10   500       20    2000     30    2500   1.000000000   5.0000
================================================================================
`
	stats := parseConversations(out)
	require.Len(t, stats.Conversations, 2)

	assert.Equal(t, "192.168.1.50:16500 <-> 192.168.1.10:554", stats.Conversations[0].Endpoints)
	assert.Equal(t, 1900, stats.Conversations[0].Frames)
	assert.Equal(t, 1245000, stats.Conversations[0].Bytes)

	assert.Equal(t, 1930, stats.TotalFrames)
	assert.Equal(t, 1247500, stats.TotalBytes)
}

func TestParseConversationsEmptyOutput(t *testing.T) {
	stats := parseConversations("")
	assert.Empty(t, stats.Conversations)
	assert.Zero(t, stats.TotalFrames)
}

func TestParseProtocolHierarchy(t *testing.T) {
	out := `===================================================================
Protocol Hierarchy Statistics
Filter:

eth                                      frames:1900 bytes:1250000
  ip                                     frames:1900 bytes:1250000
    udp                                  frames:1900 bytes:1250000
      rtp                                frames:1000 bytes:1200000
===================================================================
`
	protocols := parseProtocolHierarchy(out)
	assert.Equal(t, 1900, protocols["eth"])
	assert.Equal(t, 1900, protocols["udp"])
	assert.Equal(t, 1000, protocols["rtp"])
	assert.NotContains(t, protocols, "Protocol")
}

// TestScoreQuality verifies the grading formula: 10 ms jitter, 2% loss,
// and 5 Mbps average over one stream score (90 + 80 + 50) / 3.
func TestScoreQuality(t *testing.T) {
	streams := map[string]*Stream{
		"a": {Metrics: StreamMetrics{
			JitterMs:          10,
			PacketLossPercent: 2,
			BitrateMbps:       5,
			TotalPackets:      100,
		}},
	}

	score := scoreQuality(streams)
	assert.InDelta(t, 10.0, score.AvgJitterMs, 1e-9)
	assert.InDelta(t, 2.0, score.AvgPacketLossPercent, 1e-9)
	assert.InDelta(t, 5.0, score.AvgBitrateMbps, 1e-9)
	assert.InDelta(t, (90.0+80.0+50.0)/3, score.VideoQuality, 1e-9)
	assert.Equal(t, score.VideoQuality, score.OverallScore)
}

func TestScoreQualityClamps(t *testing.T) {
	streams := map[string]*Stream{
		"bad": {Metrics: StreamMetrics{
			JitterMs:          500, // floors at 0
			PacketLossPercent: 50,  // floors at 0
			BitrateMbps:       100, // caps at 100
			TotalPackets:      10,
		}},
	}

	score := scoreQuality(streams)
	assert.InDelta(t, 100.0/3, score.VideoQuality, 1e-9)
}

func TestScoreQualityNoStreams(t *testing.T) {
	score := scoreQuality(nil)
	assert.Zero(t, score.OverallScore)

	// A stream too short to analyze contributes nothing.
	score = scoreQuality(map[string]*Stream{"short": {PacketCount: 1}})
	assert.Zero(t, score.OverallScore)
}

func TestRenderReport(t *testing.T) {
	res := &Result{
		Streams: map[string]*Stream{
			"10.0.0.1:17000->10.0.0.2:554": {
				PayloadType: 96,
				Metrics: StreamMetrics{
					JitterMs:          12.5,
					PacketLossPercent: 1.25,
					BitrateMbps:       2.5,
					TotalPackets:      79,
					ExpectedPackets:   80,
				},
			},
		},
		Network: NetworkStats{
			Conversations: []Conversation{{Endpoints: "a <-> b", Frames: 100, Bytes: 5000}},
			TotalFrames:   100,
			TotalBytes:    5000,
		},
		Protocols: map[string]int{"udp": 100, "rtp": 79},
		Quality:   QualityScore{OverallScore: 81.5, VideoQuality: 81.5},
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	report := RenderReport(res)
	assert.Contains(t, report, "Overall score: 81.5/100")
	assert.Contains(t, report, "10.0.0.1:17000->10.0.0.2:554 (payload type 96)")
	assert.Contains(t, report, "Packets: 79 of 80 expected")
	assert.Contains(t, report, "Conversations: 1")
	assert.Contains(t, report, "rtp: 79 frames")
	assert.Contains(t, report, "Generated: 2025-06-01 12:00:00")
}

func TestAnalyzeFileMissing(t *testing.T) {
	a := New(nil)
	_, err := a.AnalyzeFile(context.Background(), "/nonexistent/capture.pcap")
	assert.ErrorIs(t, err, ErrCaptureFileMissing)
}
