package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes ffprobe with args and returns its stdout. Tests replace
// it to feed canned JSON.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// ExecRunner returns a Runner that invokes bin as a subprocess. On failure
// the returned error carries ffprobe's stderr.
func ExecRunner(bin string) Runner {
	return func(ctx context.Context, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, bin, args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("%w: %s", err, msg)
			}
			return nil, err
		}
		return out, nil
	}
}

// Prober runs ffprobe queries through a Runner.
type Prober struct {
	run Runner
}

// NewProber returns a Prober backed by run. A nil run uses the ffprobe
// binary on PATH.
func NewProber(run Runner) *Prober {
	if run == nil {
		run = ExecRunner("ffprobe")
	}
	return &Prober{run: run}
}

// Probe runs a single ffprobe JSON call against path and returns the
// parsed result.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	out, err := p.run(ctx,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseJSON(out)
}

// CountDecoded decodes the first video stream of path and returns the
// number of frames actually read.
func (p *Prober) CountDecoded(ctx context.Context, path string) (int64, error) {
	out, err := p.run(ctx,
		"-v", "error",
		"-count_frames",
		"-select_streams", "v:0",
		"-show_entries", "stream=nb_read_frames",
		"-print_format", "json",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe -count_frames %q: %w", path, err)
	}
	return ParseReadFrames(out)
}

// ParseJSON converts raw ffprobe JSON output into a ProbeResult.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*ProbeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildResult(&raw), nil
}

// ParseReadFrames extracts nb_read_frames from a -count_frames query.
func ParseReadFrames(data []byte) (int64, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	if len(raw.Streams) == 0 {
		return 0, errors.New("ffprobe reported no video stream")
	}
	return parseInt64(raw.Streams[0].NbReadFrames), nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string `json:"filename"`
	NbStreams  int    `json:"nb_streams"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type ffprobeStream struct {
	Index        int            `json:"index"`
	CodecName    string         `json:"codec_name"`
	CodecType    string         `json:"codec_type"`
	PixFmt       string         `json:"pix_fmt"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	AvgFrameRate string         `json:"avg_frame_rate"`
	Duration     string         `json:"duration"`
	NbFrames     string         `json:"nb_frames"`
	NbReadFrames string         `json:"nb_read_frames"`
	Disposition  map[string]int `json:"disposition"`
}

// --- Conversion from wire types to domain types ---

func buildResult(raw *ffprobeOutput) *ProbeResult {
	pr := &ProbeResult{
		Format: FormatInfo{
			Filename:   raw.Format.Filename,
			NbStreams:  raw.Format.NbStreams,
			FormatName: raw.Format.FormatName,
			Duration:   parseFloat(raw.Format.Duration),
			Size:       parseInt64(raw.Format.Size),
		},
	}
	for i := range raw.Streams {
		s := &raw.Streams[i]
		if s.CodecType != "video" {
			continue
		}
		vs := VideoStream{
			Index:         s.Index,
			Codec:         s.CodecName,
			PixFmt:        s.PixFmt,
			Width:         s.Width,
			Height:        s.Height,
			AvgFrameRate:  s.AvgFrameRate,
			Duration:      parseFloat(s.Duration),
			NbFrames:      parseInt64(s.NbFrames),
			IsAttachedPic: s.Disposition["attached_pic"] == 1,
		}
		if !vs.IsAttachedPic {
			pr.PrimaryVideo = &vs
			break
		}
	}
	return pr
}
