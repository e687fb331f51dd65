package analysis

import (
	"strconv"
	"strings"
)

// Conversation is one row of tshark's conv,udp table.
type Conversation struct {
	Endpoints string `json:"endpoints"`
	Frames    int    `json:"frames"`
	Bytes     int    `json:"bytes"`
}

// NetworkStats summarizes a capture's UDP traffic.
type NetworkStats struct {
	Conversations []Conversation `json:"udp_conversations"`
	TotalFrames   int            `json:"total_udp_frames"`
	TotalBytes    int            `json:"total_udp_bytes"`
}

// parseConversations extracts the UDP conversation rows from a tshark
// summary pass. Header, ruler, and malformed lines are skipped.
//
// A row reads "A <-> B framesIn bytesIn framesOut bytesOut framesTotal
// bytesTotal relStart duration"; the totals columns are kept.
func parseConversations(out string) NetworkStats {
	var stats NetworkStats

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)

		arrow := -1
		for i, f := range fields {
			if f == "<->" {
				arrow = i
				break
			}
		}
		if arrow < 1 || arrow+1 >= len(fields) {
			continue
		}

		var nums []int
		for _, f := range fields[arrow+2:] {
			if n, err := strconv.Atoi(f); err == nil {
				nums = append(nums, n)
			}
		}
		if len(nums) < 6 {
			continue
		}

		conv := Conversation{
			Endpoints: fields[arrow-1] + " <-> " + fields[arrow+1],
			Frames:    nums[4],
			Bytes:     nums[5],
		}
		stats.Conversations = append(stats.Conversations, conv)
		stats.TotalFrames += conv.Frames
		stats.TotalBytes += conv.Bytes
	}

	return stats
}

// parseProtocolHierarchy extracts per-protocol frame counts from tshark's
// io,phs tree, keyed by protocol name.
func parseProtocolHierarchy(out string) map[string]int {
	protocols := make(map[string]int)

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || strings.HasPrefix(fields[0], "=") {
			continue
		}

		for _, f := range fields[1:] {
			if !strings.HasPrefix(f, "frames:") {
				continue
			}
			if n, err := strconv.Atoi(strings.TrimPrefix(f, "frames:")); err == nil {
				protocols[fields[0]] = n
			}
		}
	}

	return protocols
}
