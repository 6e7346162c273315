package probe

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
)

// Typical mp4 from a lab camera: one h264 stream with nb_frames.
const sampleMP4 = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "h264",
      "codec_type": "video",
      "pix_fmt": "yuv420p",
      "width": 640,
      "height": 480,
      "avg_frame_rate": "30/1",
      "duration": "10.000000",
      "nb_frames": "300",
      "disposition": { "default": 1, "attached_pic": 0 }
    },
    {
      "index": 1,
      "codec_name": "aac",
      "codec_type": "audio",
      "disposition": { "default": 1, "attached_pic": 0 }
    }
  ],
  "format": {
    "filename": "/data/mouse01.mp4",
    "nb_streams": 2,
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "duration": "10.010000",
    "size": "1234567"
  }
}`

// Matroska with cover art first and no nb_frames on the real stream.
const sampleMKVNoCount = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "mjpeg",
      "codec_type": "video",
      "width": 600,
      "height": 900,
      "disposition": { "default": 0, "attached_pic": 1 }
    },
    {
      "index": 1,
      "codec_name": "hevc",
      "codec_type": "video",
      "pix_fmt": "yuv420p",
      "width": 1280,
      "height": 720,
      "avg_frame_rate": "30000/1001",
      "disposition": { "default": 1, "attached_pic": 0 }
    }
  ],
  "format": {
    "filename": "/data/mouse02.mkv",
    "nb_streams": 2,
    "format_name": "matroska,webm",
    "duration": "2.002000",
    "size": "99999"
  }
}`

const sampleAudioOnly = `{
  "streams": [
    { "index": 0, "codec_name": "mp3", "codec_type": "audio" }
  ],
  "format": { "filename": "song.mp3", "nb_streams": 1, "duration": "3.0" }
}`

func readFrames(n int) string {
	return fmt.Sprintf(`{"streams":[{"nb_read_frames":"%d"}]}`, n)
}

// fakeRunner answers ffprobe calls from canned output keyed by path. Paths
// missing from probe fail like ffprobe does on a missing file.
type fakeRunner struct {
	probe   map[string]string
	decoded map[string]string
}

func (f fakeRunner) run(_ context.Context, args ...string) ([]byte, error) {
	path := args[len(args)-1]
	if slices.Contains(args, "-count_frames") {
		out, ok := f.decoded[path]
		if !ok {
			return nil, errors.New("exit status 1: no decoded count")
		}
		return []byte(out), nil
	}
	out, ok := f.probe[path]
	if !ok {
		return nil, fmt.Errorf("exit status 1: %s: No such file or directory", path)
	}
	return []byte(out), nil
}

func TestParseJSON_MP4(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleMP4))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if pr.Format.Filename != "/data/mouse01.mp4" {
		t.Errorf("filename: got %q", pr.Format.Filename)
	}
	if pr.Format.Duration != 10.01 {
		t.Errorf("format duration: got %f, want 10.01", pr.Format.Duration)
	}
	if pr.PrimaryVideo == nil {
		t.Fatal("PrimaryVideo is nil")
	}
	if pr.PrimaryVideo.NbFrames != 300 {
		t.Errorf("nb_frames: got %d, want 300", pr.PrimaryVideo.NbFrames)
	}
	if pr.FrameRate() != 30 {
		t.Errorf("FrameRate: got %f, want 30", pr.FrameRate())
	}
	if pr.Duration() != 10 {
		t.Errorf("Duration: got %f, want stream duration 10", pr.Duration())
	}
	if pr.Resolution() != "640x480" {
		t.Errorf("Resolution: got %q", pr.Resolution())
	}
}

func TestParseJSON_AttachedPicSkipped(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleMKVNoCount))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if pr.PrimaryVideo == nil || pr.PrimaryVideo.Index != 1 {
		t.Fatalf("PrimaryVideo = %+v, want index 1", pr.PrimaryVideo)
	}
	if pr.PrimaryVideo.NbFrames != 0 {
		t.Errorf("nb_frames: got %d, want 0 when absent", pr.PrimaryVideo.NbFrames)
	}
	if pr.Duration() != 2.002 {
		t.Errorf("Duration: got %f, want container fallback 2.002", pr.Duration())
	}
}

func TestParseJSON_InvalidJSON(t *testing.T) {
	if _, err := ParseJSON([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseReadFrames(t *testing.T) {
	n, err := ParseReadFrames([]byte(readFrames(61)))
	if err != nil || n != 61 {
		t.Errorf("ParseReadFrames = %d, %v; want 61", n, err)
	}
	if _, err := ParseReadFrames([]byte(`{"streams":[]}`)); err == nil {
		t.Error("expected error for empty streams")
	}
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"25", 25},
		{"0/0", 0},
		{"", 0},
		{"60000/1000", 60},
	}
	for _, tt := range tests {
		if got := parseRatio(tt.in); got != tt.want {
			t.Errorf("parseRatio(%q) = %f, want %f", tt.in, got, tt.want)
		}
	}
}

func TestResolution_NoVideo(t *testing.T) {
	pr := &ProbeResult{}
	if pr.Resolution() != "unknown" {
		t.Errorf("Resolution() = %q, want unknown", pr.Resolution())
	}
	if pr.FrameRate() != 0 {
		t.Errorf("FrameRate() = %f, want 0", pr.FrameRate())
	}
}

func TestCountFrames(t *testing.T) {
	fr := fakeRunner{
		probe: map[string]string{
			"/data/a.mp4": sampleMP4,
			"/data/b.mkv": sampleMKVNoCount,
		},
		decoded: map[string]string{
			"/data/a.mp4": readFrames(299),
			"/data/b.mkv": readFrames(60),
		},
	}
	opts := CountOptions{Prober: NewProber(fr.run), Workers: 2}

	fc, err := CountFrames(context.Background(), []string{"/data/a.mp4", "/data/b.mkv"}, opts)
	if err != nil {
		t.Fatalf("CountFrames: %v", err)
	}
	if fc.Total != 360 {
		t.Errorf("Total = %d, want 360", fc.Total)
	}
	if got := fc.Videos[0]; got.Path != "/data/a.mp4" || got.Frames != 300 || got.Source != CountMetadata {
		t.Errorf("Videos[0] = %+v", got)
	}
	if got := fc.Videos[1]; got.Frames != 60 || got.Source != CountDecoded || got.Width != 1280 {
		t.Errorf("Videos[1] = %+v", got)
	}

	opts.Exact = true
	fc, err = CountFrames(context.Background(), []string{"/data/a.mp4"}, opts)
	if err != nil {
		t.Fatalf("CountFrames exact: %v", err)
	}
	if fc.Total != 299 || fc.Videos[0].Source != CountDecoded {
		t.Errorf("exact count = %+v, want 299 decoded", fc.Videos[0])
	}
}

func TestCountFrames_Estimated(t *testing.T) {
	fr := fakeRunner{
		probe:   map[string]string{"/data/b.mkv": sampleMKVNoCount},
		decoded: map[string]string{"/data/b.mkv": readFrames(0)},
	}
	fc, err := CountFrames(context.Background(), []string{"/data/b.mkv"}, CountOptions{Prober: NewProber(fr.run)})
	if err != nil {
		t.Fatalf("CountFrames: %v", err)
	}
	// 2.002s at 29.97fps.
	if fc.Total != 60 || fc.Videos[0].Source != CountEstimated {
		t.Errorf("got %+v, want 60 estimated", fc.Videos[0])
	}
}

func TestCountFrames_Additive(t *testing.T) {
	fr := fakeRunner{
		probe: map[string]string{
			"/a.mp4": sampleMP4,
			"/b.mkv": sampleMKVNoCount,
			"/c.mp4": sampleMP4,
		},
		decoded: map[string]string{"/b.mkv": readFrames(60)},
	}
	opts := CountOptions{Prober: NewProber(fr.run), Workers: 3}
	ctx := context.Background()
	a := []string{"/a.mp4", "/b.mkv"}
	b := []string{"/c.mp4"}

	fa, err := CountFrames(ctx, a, opts)
	if err != nil {
		t.Fatal(err)
	}
	fb, err := CountFrames(ctx, b, opts)
	if err != nil {
		t.Fatal(err)
	}
	fab, err := CountFrames(ctx, append(slices.Clone(a), b...), opts)
	if err != nil {
		t.Fatal(err)
	}
	if fab.Total != fa.Total+fb.Total {
		t.Errorf("Total(A++B) = %d, want %d + %d", fab.Total, fa.Total, fb.Total)
	}
}

func TestCountFrames_Unreadable(t *testing.T) {
	fr := fakeRunner{
		probe: map[string]string{
			"/ok.mp4":   sampleMP4,
			"/song.mp3": sampleAudioOnly,
		},
	}
	tests := []struct {
		name     string
		paths    []string
		wantPath string
		wantNoVS bool
	}{
		{"missing file", []string{"/ok.mp4", "/missing.mp4"}, "/missing.mp4", false},
		{"no video stream", []string{"/song.mp3"}, "/song.mp3", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CountFrames(context.Background(), tt.paths, CountOptions{Prober: NewProber(fr.run)})
			var vu *VideoUnreadableError
			if !errors.As(err, &vu) {
				t.Fatalf("CountFrames() = %v, want *VideoUnreadableError", err)
			}
			if vu.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", vu.Path, tt.wantPath)
			}
			if got := errors.Is(err, ErrNoVideoStream); got != tt.wantNoVS {
				t.Errorf("errors.Is(ErrNoVideoStream) = %v, want %v", got, tt.wantNoVS)
			}
		})
	}
}

func TestFrameCounts_Dims(t *testing.T) {
	same := FrameCounts{Videos: []VideoInfo{{Width: 64, Height: 48}, {Width: 64, Height: 48}}}
	if w, h, ok := same.Dims(); !ok || w != 64 || h != 48 {
		t.Errorf("Dims() = %d, %d, %v", w, h, ok)
	}
	mixed := FrameCounts{Videos: []VideoInfo{{Width: 64, Height: 48}, {Width: 32, Height: 48}}}
	if _, _, ok := mixed.Dims(); ok {
		t.Error("Dims() ok for mixed sizes")
	}
	if _, _, ok := (FrameCounts{}).Dims(); ok {
		t.Error("Dims() ok for empty set")
	}
}
