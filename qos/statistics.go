package qos

import "time"

// JitterSample records the inter-arrival delta of one accepted RTP packet.
// Samples are ordered by arrival, never by sequence number.
type JitterSample struct {
	Timestamp float64 // capture-relative, seconds
	Jitter    float64 // milliseconds
	Seq       uint16
}

// BitrateSample records the size of one media packet together with the
// wall-clock time it was observed. The wall clock is deliberately
// independent of the capture timestamp, so replayed or non-monotonic
// captures cannot skew the bitrate window.
type BitrateSample struct {
	Timestamp float64 // capture-relative, seconds
	WallClock time.Time
	Bytes     int
}

// Statistics is the session-scoped aggregate of counters and sample
// windows. It is created at session start, mutated only by the analysis
// path, and reset rather than destroyed when a session stops or restarts.
type Statistics struct {
	TotalPackets uint64
	MediaPackets uint64
	RTPPackets   uint64
	LostPackets  uint64 // gaps observed in the latest loss window
	Errors       uint64 // malformed records discarded
	Overflows    uint64 // extractor buffer truncations
	StartTime    time.Time

	jitterSamples  []JitterSample
	bitrateSamples []BitrateSample
}

// NewStatistics creates an empty Statistics aggregate for a session
// starting at start.
func NewStatistics(start time.Time) *Statistics {
	return &Statistics{StartTime: start}
}

// Reset returns the aggregate to its creation state with a new session
// start time. Prior session data is discarded, never merged.
func (s *Statistics) Reset(start time.Time) {
	s.TotalPackets = 0
	s.MediaPackets = 0
	s.RTPPackets = 0
	s.LostPackets = 0
	s.Errors = 0
	s.Overflows = 0
	s.StartTime = start
	s.jitterSamples = s.jitterSamples[:0]
	s.bitrateSamples = s.bitrateSamples[:0]
}

// JitterSampleCount returns the number of retained jitter samples.
func (s *Statistics) JitterSampleCount() int {
	return len(s.jitterSamples)
}

// BitrateSampleCount returns the number of retained bitrate samples.
func (s *Statistics) BitrateSampleCount() int {
	return len(s.bitrateSamples)
}
