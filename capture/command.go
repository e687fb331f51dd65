package capture

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/qoswatch/qoswatch/config"
)

// dissectedFields are the tshark fields the analysis pipeline consumes.
var dissectedFields = []string{
	"frame.number",
	"frame.time_relative",
	"frame.len",
	"ip.src",
	"ip.dst",
	"udp.srcport",
	"udp.dstport",
	"rtp.seq",
	"rtp.timestamp",
	"rtp.p_type",
	"rtp.marker",
}

// filterAllowedChars is the allow-list for capture filter characters.
// Everything else is stripped before the filter reaches the child process.
const filterAllowedChars = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789 .-()[]{}!&|=<>"

// BuildArgs constructs the tshark argument vector for live capture with
// line-buffered JSON output of the dissected fields, limited in duration
// and output size as configured.
func BuildArgs(cfg *config.Config) []string {
	args := []string{
		"-i", cfg.Interface,
		"-l",
		"-T", "json",
	}
	for _, field := range dissectedFields {
		args = append(args, "-e", field)
	}
	args = append(args,
		"-Y", "udp",
		"-a", fmt.Sprintf("duration:%d", int(cfg.CaptureDuration.Seconds())),
		"-b", fmt.Sprintf("filesize:%d", cfg.MaxFileSizeKB),
	)

	if cfg.CaptureFilter != "" {
		args = append(args, "-f", SanitizeFilter(cfg.CaptureFilter))
	}

	return args
}

// BuildReadArgs constructs the tshark argument vector for reading the RTP
// records back out of a saved capture file as JSON.
func BuildReadArgs(pcapPath string) []string {
	args := []string{
		"-r", pcapPath,
		"-T", "json",
	}
	for _, field := range dissectedFields {
		args = append(args, "-e", field)
	}
	return append(args, "-Y", "rtp")
}

// BuildStatsArgs constructs the argument vector for tshark's offline
// summary pass: UDP conversations and the protocol hierarchy.
func BuildStatsArgs(pcapPath string) []string {
	return []string{"-r", pcapPath, "-q", "-z", "conv,udp", "-z", "io,phs"}
}

// SanitizeFilter strips every character outside the allow-list from a
// capture filter. The result may be empty.
func SanitizeFilter(filter string) string {
	sanitized := strings.Map(func(r rune) rune {
		if strings.ContainsRune(filterAllowedChars, r) {
			return r
		}
		return -1
	}, filter)

	if sanitized != filter {
		logrus.WithFields(logrus.Fields{
			"function":  "SanitizeFilter",
			"original":  filter,
			"sanitized": sanitized,
		}).Warn("Capture filter contained disallowed characters")
	}

	return sanitized
}
