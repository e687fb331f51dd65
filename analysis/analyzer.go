package analysis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qoswatch/qoswatch/capture"
	"github.com/qoswatch/qoswatch/config"
	"github.com/qoswatch/qoswatch/jsonstream"
	"github.com/qoswatch/qoswatch/packet"
)

// ErrCaptureFileMissing indicates the pcap file to analyze does not exist.
var ErrCaptureFileMissing = errors.New("capture file not found")

// Result is the complete outcome of analyzing one capture file.
type Result struct {
	Streams   map[string]*Stream `json:"streams"`
	Network   NetworkStats       `json:"network"`
	Protocols map[string]int     `json:"protocols"`
	Quality   QualityScore       `json:"quality"`
	Timestamp time.Time          `json:"timestamp"`
}

// Analyzer reads saved capture files back through tshark.
type Analyzer struct {
	cfg *config.Config
}

// New creates an Analyzer from cfg. A nil cfg uses the defaults.
func New(cfg *config.Config) *Analyzer {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Analyzer{cfg: cfg}
}

// AnalyzeFile runs both offline passes over pcapPath: a JSON record pass
// for per-stream RTP metrics and a summary pass for UDP conversations and
// the protocol hierarchy.
func (a *Analyzer) AnalyzeFile(ctx context.Context, pcapPath string) (*Result, error) {
	if _, err := os.Stat(pcapPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCaptureFileMissing, pcapPath)
	}
	if err := capture.CheckTshark(ctx, a.cfg.TsharkPath); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "Analyzer.AnalyzeFile",
		"file":     pcapPath,
	}).Info("Analyzing capture file")

	streams, err := a.readStreams(ctx, pcapPath)
	if err != nil {
		return nil, err
	}

	statsOut, err := a.runStats(ctx, pcapPath)
	if err != nil {
		return nil, err
	}

	return &Result{
		Streams:   streams,
		Network:   parseConversations(statsOut),
		Protocols: parseProtocolHierarchy(statsOut),
		Quality:   scoreQuality(streams),
		Timestamp: time.Now(),
	}, nil
}

// readStreams spawns the record pass and folds its output into streams.
func (a *Analyzer) readStreams(ctx context.Context, pcapPath string) (map[string]*Stream, error) {
	cmd := exec.CommandContext(ctx, a.cfg.TsharkPath, capture.BuildReadArgs(pcapPath)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("attach stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", a.cfg.TsharkPath, err)
	}

	streams, err := collectStreams(stdout, a.cfg.MaxBufferSize)
	if werr := cmd.Wait(); err == nil && werr != nil {
		err = fmt.Errorf("read capture file: %w", werr)
	}
	return streams, err
}

// runStats spawns the summary pass and returns its raw output.
func (a *Analyzer) runStats(ctx context.Context, pcapPath string) (string, error) {
	out, err := exec.CommandContext(ctx, a.cfg.TsharkPath, capture.BuildStatsArgs(pcapPath)...).Output()
	if err != nil {
		return "", fmt.Errorf("capture statistics: %w", err)
	}
	return string(out), nil
}

// collectStreams drives dissected records from r through the extractor and
// parser, grouping RTP packets by endpoint pair. Malformed and non-RTP
// records are skipped, never fatal. Stream metrics are derived once the
// reader is drained.
func collectStreams(r io.Reader, maxBufferSize int) (map[string]*Stream, error) {
	extractor := jsonstream.NewExtractorSize(maxBufferSize)
	streams := make(map[string]*Stream)

	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		chunk, err := reader.ReadString('\n')
		if len(chunk) > 0 {
			for _, rec := range extractor.Feed(chunk) {
				ev, perr := packet.ParseRecord([]byte(rec))
				if perr != nil || !ev.HasRTP {
					continue
				}

				key := streamKey(ev)
				st := streams[key]
				if st == nil {
					st = &Stream{}
					streams[key] = st
				}
				st.add(ev)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read record stream: %w", err)
		}
	}

	for _, st := range streams {
		st.analyze()
	}
	return streams, nil
}
