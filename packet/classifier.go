package packet

// DefaultMediaPorts are well-known streaming ports: RTSP, common HTTP
// camera feeds, and RTMP.
var DefaultMediaPorts = []int{554, 8000, 8080, 1935}

// Default ephemeral RTP port range.
const (
	DefaultRTPPortMin = 16384
	DefaultRTPPortMax = 32767
)

// Classifier decides whether a packet is media traffic from its ports.
// It is pure: construction fixes the rule set and IsMedia has no state
// or side effects, so a single instance may be shared freely.
type Classifier struct {
	mediaPorts map[int]struct{}
	rtpPortMin int
	rtpPortMax int
}

// NewClassifier creates a Classifier for the given well-known media ports
// and ephemeral RTP port range. Nil or empty ports fall back to
// DefaultMediaPorts; a degenerate range falls back to the default range.
func NewClassifier(mediaPorts []int, rtpPortMin, rtpPortMax int) *Classifier {
	if len(mediaPorts) == 0 {
		mediaPorts = DefaultMediaPorts
	}
	if rtpPortMin <= 0 || rtpPortMax < rtpPortMin {
		rtpPortMin = DefaultRTPPortMin
		rtpPortMax = DefaultRTPPortMax
	}

	set := make(map[int]struct{}, len(mediaPorts))
	for _, p := range mediaPorts {
		set[p] = struct{}{}
	}

	return &Classifier{
		mediaPorts: set,
		rtpPortMin: rtpPortMin,
		rtpPortMax: rtpPortMax,
	}
}

// IsMedia reports whether either port belongs to the media port set or
// falls inside the ephemeral RTP range.
func (c *Classifier) IsMedia(srcPort, dstPort int) bool {
	if _, ok := c.mediaPorts[srcPort]; ok {
		return true
	}
	if _, ok := c.mediaPorts[dstPort]; ok {
		return true
	}
	return c.inRTPRange(srcPort) || c.inRTPRange(dstPort)
}

func (c *Classifier) inRTPRange(port int) bool {
	return port >= c.rtpPortMin && port <= c.rtpPortMax
}
