package probe

import (
	"strconv"
	"strings"
)

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string
	NbStreams  int
	FormatName string
	Duration   float64
	Size       int64
}

// VideoStream holds the parsed properties of a single video stream.
type VideoStream struct {
	Index         int
	Codec         string
	PixFmt        string
	Width         int
	Height        int
	AvgFrameRate  string
	Duration      float64
	NbFrames      int64 // Container-reported frame count; 0 when absent.
	IsAttachedPic bool
}

// ProbeResult is the parsed output of a single ffprobe JSON call.
// PrimaryVideo is the first non-attached-pic video stream (nil if none).
type ProbeResult struct {
	Format       FormatInfo
	PrimaryVideo *VideoStream
}

// FrameRate returns the primary stream's average frame rate in frames per
// second, or 0 when unknown. ffprobe reports it as a ratio ("30000/1001").
func (p *ProbeResult) FrameRate() float64 {
	if p.PrimaryVideo == nil {
		return 0
	}
	return parseRatio(p.PrimaryVideo.AvgFrameRate)
}

// Duration returns the stream duration, falling back to the container's.
func (p *ProbeResult) Duration() float64 {
	if p.PrimaryVideo != nil && p.PrimaryVideo.Duration > 0 {
		return p.PrimaryVideo.Duration
	}
	return p.Format.Duration
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (p *ProbeResult) Resolution() string {
	if p.PrimaryVideo == nil || p.PrimaryVideo.Width <= 0 || p.PrimaryVideo.Height <= 0 {
		return "unknown"
	}
	return strconv.Itoa(p.PrimaryVideo.Width) + "x" + strconv.Itoa(p.PrimaryVideo.Height)
}

// CountSource records how a frame count was obtained.
type CountSource string

const (
	CountMetadata  CountSource = "metadata"  // nb_frames from the container.
	CountDecoded   CountSource = "decoded"   // nb_read_frames after a full decode.
	CountEstimated CountSource = "estimated" // round(duration * fps).
)

// VideoInfo is the per-file result of [CountFrames].
type VideoInfo struct {
	Path      string
	Codec     string
	Width     int
	Height    int
	FrameRate float64
	Duration  float64
	Frames    int
	Source    CountSource
}

// FrameCounts holds per-file results in input order and their sum.
type FrameCounts struct {
	Videos []VideoInfo
	Total  int
}

// Dims returns the frame size shared by every video, or ok=false when the
// set is empty or mixes sizes.
func (fc FrameCounts) Dims() (width, height int, ok bool) {
	if len(fc.Videos) == 0 {
		return 0, 0, false
	}
	width, height = fc.Videos[0].Width, fc.Videos[0].Height
	for _, v := range fc.Videos[1:] {
		if v.Width != width || v.Height != height {
			return 0, 0, false
		}
	}
	return width, height, true
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseRatio(s string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return parseFloat(num)
	}
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return parseFloat(num) / d
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
