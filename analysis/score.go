package analysis

// QualityScore grades a capture from its per-stream metrics.
type QualityScore struct {
	OverallScore         float64 `json:"overall_score"`
	VideoQuality         float64 `json:"video_quality"`
	AvgJitterMs          float64 `json:"avg_jitter_ms"`
	AvgPacketLossPercent float64 `json:"avg_packet_loss_percent"`
	AvgBitrateMbps       float64 `json:"avg_bitrate_mbps"`
}

// scoreQuality averages the analyzed streams and grades them 0..100.
// Jitter costs a point per millisecond, loss ten points per percent, and
// bitrate earns ten points per Mbps; the video score is the mean of the
// three and doubles as the overall score until non-video scoring exists.
func scoreQuality(streams map[string]*Stream) QualityScore {
	var score QualityScore

	analyzed := 0
	for _, st := range streams {
		if st.Metrics.TotalPackets == 0 {
			continue
		}
		score.AvgJitterMs += st.Metrics.JitterMs
		score.AvgPacketLossPercent += st.Metrics.PacketLossPercent
		score.AvgBitrateMbps += st.Metrics.BitrateMbps
		analyzed++
	}
	if analyzed == 0 {
		return score
	}

	n := float64(analyzed)
	score.AvgJitterMs /= n
	score.AvgPacketLossPercent /= n
	score.AvgBitrateMbps /= n

	jitterScore := clampScore(100 - score.AvgJitterMs)
	lossScore := clampScore(100 - score.AvgPacketLossPercent*10)
	bitrateScore := clampScore(score.AvgBitrateMbps * 10)

	score.VideoQuality = (jitterScore + lossScore + bitrateScore) / 3
	score.OverallScore = score.VideoQuality
	return score
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
