package analysis

import (
	"fmt"
	"sort"
	"strings"
)

// RenderReport formats a Result as a human-readable analysis report.
// Streams and protocols are listed in deterministic key order.
func RenderReport(res *Result) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "qoswatch capture analysis")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Generated: %s\n\n", res.Timestamp.Format("2006-01-02 15:04:05"))

	fmt.Fprintln(&b, "QUALITY:")
	fmt.Fprintf(&b, "  Overall score: %.1f/100\n", res.Quality.OverallScore)
	fmt.Fprintf(&b, "  Video quality: %.1f/100\n", res.Quality.VideoQuality)
	fmt.Fprintf(&b, "  Average jitter: %.2f ms\n", res.Quality.AvgJitterMs)
	fmt.Fprintf(&b, "  Average packet loss: %.2f%%\n", res.Quality.AvgPacketLossPercent)
	fmt.Fprintf(&b, "  Average bitrate: %.2f Mbps\n\n", res.Quality.AvgBitrateMbps)

	if len(res.Streams) > 0 {
		fmt.Fprintln(&b, "RTP STREAMS:")
		for _, key := range sortedStreamKeys(res.Streams) {
			st := res.Streams[key]
			fmt.Fprintf(&b, "  %s (payload type %d)\n", key, st.PayloadType)
			fmt.Fprintf(&b, "    Jitter: %.2f ms\n", st.Metrics.JitterMs)
			fmt.Fprintf(&b, "    Packet loss: %.2f%%\n", st.Metrics.PacketLossPercent)
			fmt.Fprintf(&b, "    Bitrate: %.2f Mbps\n", st.Metrics.BitrateMbps)
			fmt.Fprintf(&b, "    Packets: %d of %d expected\n",
				st.Metrics.TotalPackets, st.Metrics.ExpectedPackets)
		}
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, "UDP TRAFFIC:")
	fmt.Fprintf(&b, "  Conversations: %d\n", len(res.Network.Conversations))
	fmt.Fprintf(&b, "  Frames: %d\n", res.Network.TotalFrames)
	fmt.Fprintf(&b, "  Bytes: %d\n", res.Network.TotalBytes)

	if len(res.Protocols) > 0 {
		names := make([]string, 0, len(res.Protocols))
		for name := range res.Protocols {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "PROTOCOLS:")
		for _, name := range names {
			fmt.Fprintf(&b, "  %s: %d frames\n", name, res.Protocols[name])
		}
	}

	return b.String()
}

func sortedStreamKeys(streams map[string]*Stream) []string {
	keys := make([]string, 0, len(streams))
	for k := range streams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
