package qos

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// sequenceSpace is the size of the 16-bit RTP sequence number space.
const sequenceSpace = 65536

// TimeProvider abstracts wall-clock operations for deterministic testing.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Since returns the duration since t.
func (DefaultTimeProvider) Since(t time.Time) time.Duration { return time.Since(t) }

// Config holds the window sizes of the metrics engine.
type Config struct {
	// JitterMaxSamples caps the jitter window; crossing it trims the
	// window to the most recent JitterTrimTo samples in one step, so
	// eviction cost is amortized rather than paid per insert.
	JitterMaxSamples int
	JitterTrimTo     int

	// JitterMeanWindow is how many recent samples the jitter metric
	// averages over; DelayWindow likewise for the delay metric.
	JitterMeanWindow int
	DelayWindow      int

	// MaxJitterDeltaMs rejects inter-arrival deltas at or above this
	// bound as out-of-range (stalled or out-of-order captures).
	MaxJitterDeltaMs float64

	// BitrateWindow is the wall-clock age bound on bitrate samples.
	BitrateWindow time.Duration
}

// DefaultConfig returns the standard window sizes: 1000 jitter samples
// trimmed to 500, metrics over the last 100 (jitter) and 10 (delay)
// samples, a 1000 ms delta acceptance bound, and a 10 second bitrate
// window.
func DefaultConfig() *Config {
	return &Config{
		JitterMaxSamples: 1000,
		JitterTrimTo:     500,
		JitterMeanWindow: 100,
		DelayWindow:      10,
		MaxJitterDeltaMs: 1000,
		BitrateWindow:    10 * time.Second,
	}
}

// Engine maintains the sample windows of one Statistics aggregate and
// derives point-in-time metrics from them.
//
// Engine performs no locking of its own; the session controller owns the
// lock that serializes the analysis path against snapshot readers.
type Engine struct {
	cfg   *Config
	stats *Statistics
	tp    TimeProvider
}

// NewEngine creates a metrics engine over stats. A nil config uses
// DefaultConfig.
func NewEngine(cfg *Config, stats *Statistics) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logrus.WithFields(logrus.Fields{
		"function":           "NewEngine",
		"jitter_max_samples": cfg.JitterMaxSamples,
		"jitter_trim_to":     cfg.JitterTrimTo,
		"bitrate_window":     cfg.BitrateWindow,
	}).Debug("Creating quality metrics engine")

	return &Engine{
		cfg:   cfg,
		stats: stats,
		tp:    DefaultTimeProvider{},
	}
}

// SetTimeProvider replaces the wall-clock source. Intended for tests.
func (e *Engine) SetTimeProvider(tp TimeProvider) {
	if tp != nil {
		e.tp = tp
	}
}

// RecordJitter folds one RTP arrival into the jitter window.
//
// The first sample is stored with jitter zero. Subsequent samples store
// the inter-arrival delta in milliseconds and are accepted only when the
// delta is positive and below the configured bound; anything else is an
// out-of-order or stalled capture and is discarded.
func (e *Engine) RecordJitter(timestamp float64, seq uint16) {
	samples := e.stats.jitterSamples

	if len(samples) == 0 {
		e.stats.jitterSamples = append(samples, JitterSample{
			Timestamp: timestamp,
			Jitter:    0,
			Seq:       seq,
		})
		return
	}

	deltaMs := (timestamp - samples[len(samples)-1].Timestamp) * 1000
	if deltaMs <= 0 || deltaMs >= e.cfg.MaxJitterDeltaMs {
		return
	}

	samples = append(samples, JitterSample{
		Timestamp: timestamp,
		Jitter:    deltaMs,
		Seq:       seq,
	})

	if len(samples) > e.cfg.JitterMaxSamples {
		kept := samples[len(samples)-e.cfg.JitterTrimTo:]
		samples = append(samples[:0], kept...)
	}

	e.stats.jitterSamples = samples
}

// RecordBitrate folds one media packet into the bitrate window and evicts
// every sample older than the window. Eviction is by wall-clock age and is
// idempotent.
func (e *Engine) RecordBitrate(timestamp float64, bytes int) {
	now := e.tp.Now()

	e.stats.bitrateSamples = append(e.stats.bitrateSamples, BitrateSample{
		Timestamp: timestamp,
		WallClock: now,
		Bytes:     bytes,
	})

	// Insertion wall times are non-decreasing, so expired samples form
	// a prefix.
	cutoff := now.Add(-e.cfg.BitrateWindow)
	samples := e.stats.bitrateSamples
	drop := 0
	for drop < len(samples) && samples[drop].WallClock.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		e.stats.bitrateSamples = append(samples[:0], samples[drop:]...)
	}
}

// Jitter returns the mean jitter in milliseconds over the most recent
// samples, or 0 when fewer than two samples exist.
func (e *Engine) Jitter() float64 {
	samples := e.stats.jitterSamples
	if len(samples) < 2 {
		return 0
	}

	window := lastN(samples, e.cfg.JitterMeanWindow)
	var sum float64
	for _, s := range window {
		sum += s.Jitter
	}
	return sum / float64(len(window))
}

// Delay returns an estimate of per-packet delay in milliseconds from the
// timing of the most recent samples, or 0 when the window is degenerate.
func (e *Engine) Delay() float64 {
	window := lastN(e.stats.jitterSamples, e.cfg.DelayWindow)
	if len(window) < 2 {
		return 0
	}

	span := window[len(window)-1].Timestamp - window[0].Timestamp
	if span <= 0 {
		return 0
	}
	return span * 1000 / float64(len(window))
}

// Latency returns the arithmetic mean of the jitter and delay metrics.
func (e *Engine) Latency() float64 {
	return (e.Jitter() + e.Delay()) / 2
}

// Bitrate returns the media bitrate in Mbps over samples no older than the
// configured wall-clock window, or 0 when fewer than two remain or the
// span is degenerate.
func (e *Engine) Bitrate() float64 {
	now := e.tp.Now()
	cutoff := now.Add(-e.cfg.BitrateWindow)

	samples := e.stats.bitrateSamples
	first := 0
	for first < len(samples) && samples[first].WallClock.Before(cutoff) {
		first++
	}
	recent := samples[first:]
	if len(recent) < 2 {
		return 0
	}

	var totalBytes int
	for _, s := range recent {
		totalBytes += s.Bytes
	}

	span := recent[len(recent)-1].WallClock.Sub(recent[0].WallClock).Seconds()
	if span <= 0 {
		return 0
	}

	return float64(totalBytes) * 8 / span / 1e6
}

// PacketLoss returns the percentage of sequence numbers missing from the
// most recent jitter samples, corrected for 16-bit wraparound, capped at
// 100. It also updates the LostPackets counter to the gap count of the
// current window.
//
// The window's sequence numbers are sorted numerically and walked as a
// circle: adjacent diffs plus the closing arc from the highest value back
// to the lowest. The circular diffs always sum to 65536, so exactly one
// arc covers the unused part of the sequence space; that largest arc is
// excluded, which makes a wrapped run such as 65534, 65535, 1, 2 read as
// contiguous instead of a near-total loss.
func (e *Engine) PacketLoss() float64 {
	samples := e.stats.jitterSamples
	if len(samples) < 2 {
		return 0
	}

	window := lastN(samples, e.cfg.JitterMeanWindow)
	seqs := make([]int, len(window))
	for i, s := range window {
		seqs[i] = int(s.Seq)
	}
	sort.Ints(seqs)

	diffs := make([]int, 0, len(seqs))
	for i := 1; i < len(seqs); i++ {
		diffs = append(diffs, seqs[i]-seqs[i-1])
	}
	diffs = append(diffs, seqs[0]+sequenceSpace-seqs[len(seqs)-1])

	maxIdx := 0
	for i, d := range diffs {
		if d > diffs[maxIdx] {
			maxIdx = i
		}
	}

	var totalExpected, gaps int
	for i, d := range diffs {
		if i == maxIdx {
			continue
		}
		totalExpected += d
		if d > 1 {
			gaps += d - 1
		}
	}

	if totalExpected <= 0 {
		return 0
	}

	e.stats.LostPackets = uint64(gaps)

	loss := float64(gaps) / float64(totalExpected) * 100
	if loss > 100 {
		loss = 100
	}
	return loss
}

// lastN returns the trailing n elements of samples, or all of them when
// fewer exist.
func lastN(samples []JitterSample, n int) []JitterSample {
	if len(samples) <= n {
		return samples
	}
	return samples[len(samples)-n:]
}
