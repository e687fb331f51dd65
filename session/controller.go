package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/qoswatch/qoswatch/config"
	"github.com/qoswatch/qoswatch/packet"
	"github.com/qoswatch/qoswatch/qos"
)

// ErrAlreadyRunning is returned when starting a session that is running.
var ErrAlreadyRunning = errors.New("session is already running")

// ErrNotRunning is returned when stopping a session that is not running.
var ErrNotRunning = errors.New("session is not running")

// Metrics is a point-in-time snapshot of all derived metrics and counters.
type Metrics struct {
	TotalPackets      uint64    `json:"total_packets"`
	MediaPackets      uint64    `json:"media_packets"`
	RTPPackets        uint64    `json:"rtp_packets"`
	LostPackets       uint64    `json:"lost_packets"`
	JitterMs          float64   `json:"jitter_ms"`
	DelayMs           float64   `json:"delay_ms"`
	LatencyMs         float64   `json:"latency_ms"`
	BitrateMbps       float64   `json:"bitrate_mbps"`
	PacketLossPercent float64   `json:"packet_loss_percent"`
	Errors            uint64    `json:"errors"`
	Timestamp         time.Time `json:"timestamp"`
}

// Status is a point-in-time snapshot of session health.
type Status struct {
	SessionID       string  `json:"session_id"`
	Running         bool    `json:"running"`
	Interface       string  `json:"interface"`
	CaptureFilter   string  `json:"capture_filter"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	PacketsPerSec   float64 `json:"packets_per_second"`
	QueueDepth      int     `json:"queue_depth"`
	Errors          uint64  `json:"errors"`
	BufferOverflows uint64  `json:"buffer_overflows"`
}

// Controller owns one Statistics aggregate and the event queue for the
// lifetime of a capture session.
type Controller struct {
	mu sync.Mutex

	id         string
	cfg        *config.Config
	classifier *packet.Classifier
	stats      *qos.Statistics
	engine     *qos.Engine
	queue      *packet.EventQueue
	mediaTypes map[uint8]struct{}

	running bool
	tp      qos.TimeProvider
}

// New creates a session controller from cfg. A nil cfg uses the defaults.
func New(cfg *config.Config) (*Controller, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()

	logrus.WithFields(logrus.Fields{
		"function":   "session.New",
		"session_id": id,
		"interface":  cfg.Interface,
	}).Info("Creating capture session")

	tp := qos.DefaultTimeProvider{}
	stats := qos.NewStatistics(tp.Now())

	engineCfg := qos.DefaultConfig()
	engineCfg.JitterMaxSamples = cfg.JitterMaxSamples
	engineCfg.JitterTrimTo = cfg.JitterTrimTo
	engineCfg.BitrateWindow = cfg.BitrateWindow

	mediaTypes := make(map[uint8]struct{}, len(cfg.MediaPayloadTypes))
	for _, pt := range cfg.MediaPayloadTypes {
		mediaTypes[uint8(pt)] = struct{}{}
	}

	return &Controller{
		id:         id,
		cfg:        cfg,
		classifier: packet.NewClassifier(cfg.MediaPorts, cfg.RTPPortMin, cfg.RTPPortMax),
		stats:      stats,
		engine:     qos.NewEngine(engineCfg, stats),
		queue:      packet.NewEventQueue(cfg.QueueCapacity),
		mediaTypes: mediaTypes,
		tp:         tp,
	}, nil
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Events returns the bounded queue of packet events for downstream
// consumers. The queue carries its own synchronization.
func (c *Controller) Events() *packet.EventQueue {
	return c.queue
}

// SetTimeProvider replaces the wall-clock source for the controller and
// its metrics engine. Intended for tests.
func (c *Controller) SetTimeProvider(tp qos.TimeProvider) {
	if tp == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tp = tp
	c.engine.SetTimeProvider(tp)
}

// Start marks the session running and re-initializes its statistics.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}

	c.stats.Reset(c.tp.Now())
	c.running = true

	logrus.WithFields(logrus.Fields{
		"function":   "Controller.Start",
		"session_id": c.id,
	}).Info("Session started")

	return nil
}

// Stop marks the session stopped. Statistics remain readable until the
// next Start resets them.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return ErrNotRunning
	}
	c.running = false

	logrus.WithFields(logrus.Fields{
		"function":   "Controller.Stop",
		"session_id": c.id,
	}).Info("Session stopped")

	return nil
}

// Record routes one parsed event through the classifier and metrics
// engine, then enqueues it. It is the sole mutator of the statistics and
// must be called from a single goroutine.
func (c *Controller) Record(ev packet.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalPackets++

	ev.IsMedia = c.classifier.IsMedia(ev.SrcPort, ev.DstPort)
	if ev.IsMedia {
		c.stats.MediaPackets++

		if ev.HasRTP {
			c.stats.RTPPackets++
			if _, ok := c.mediaTypes[ev.RTP.PayloadType]; ok {
				c.engine.RecordJitter(ev.Timestamp, ev.RTP.Seq)
				c.engine.RecordBitrate(ev.Timestamp, ev.Length)
			}
		}
	}

	c.queue.Push(ev)
}

// RecordError counts one discarded malformed record.
func (c *Controller) RecordError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Errors++
}

// AddOverflows accounts n extractor buffer truncations.
func (c *Controller) AddOverflows(n uint64) {
	if n == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Overflows += n
}

// MetricsSnapshot returns a consistent copy of all derived metrics and
// counters. With no intervening Record calls, repeated snapshots return
// identical values.
func (c *Controller) MetricsSnapshot() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	loss := c.engine.PacketLoss()

	return Metrics{
		TotalPackets:      c.stats.TotalPackets,
		MediaPackets:      c.stats.MediaPackets,
		RTPPackets:        c.stats.RTPPackets,
		LostPackets:       c.stats.LostPackets,
		JitterMs:          c.engine.Jitter(),
		DelayMs:           c.engine.Delay(),
		LatencyMs:         c.engine.Latency(),
		BitrateMbps:       c.engine.Bitrate(),
		PacketLossPercent: loss,
		Errors:            c.stats.Errors,
		Timestamp:         c.tp.Now(),
	}
}

// StatusSnapshot returns a consistent copy of session health state.
func (c *Controller) StatusSnapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	uptime := c.tp.Since(c.stats.StartTime).Seconds()
	var rate float64
	if uptime > 0 {
		rate = float64(c.stats.TotalPackets) / uptime
	}

	return Status{
		SessionID:       c.id,
		Running:         c.running,
		Interface:       c.cfg.Interface,
		CaptureFilter:   c.cfg.CaptureFilter,
		UptimeSeconds:   uptime,
		PacketsPerSec:   rate,
		QueueDepth:      c.queue.Len(),
		Errors:          c.stats.Errors,
		BufferOverflows: c.stats.Overflows,
	}
}

// Reset re-initializes statistics to their creation state without
// changing the running flag. It never merges with prior session data.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Reset(c.tp.Now())

	logrus.WithFields(logrus.Fields{
		"function":   "Controller.Reset",
		"session_id": c.id,
	}).Info("Session statistics reset")
}
