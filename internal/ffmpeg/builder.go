package ffmpeg

import (
	"strconv"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// seekPreroll is how many frames before Start an input-side seek lands.
// trim drops them, so a seek that rounds to a neighboring timestamp still
// starts on the right frame.
const seekPreroll = 2

// Options holds the settings shared by every command a Decoder builds.
type Options struct {
	Bin      string // ffmpeg binary; default "ffmpeg".
	HWAccel  bool   // Request hardware-accelerated decode.
	DeviceID int    // Hardware device ordinal.
	Verbose  bool   // Log at info instead of error.
}

// Args describes one decode stream: frames of Path from Start onwards,
// scaled to Width x Height when Scale is set. A positive FrameRate enables
// input-side seeking.
type Args struct {
	Path      string
	Start     int
	Width     int
	Height    int
	Scale     bool
	FrameRate float64
}

// Build constructs the complete ffmpeg argument slice (binary first) for a.
// The graph is:
//
//	[-ss t] input [-hwaccel auto] -> trim(start_frame) -> setpts -> scale -> rawvideo rgb24 on stdout
//
// With a known frame rate the input seeks to seekPreroll frames before
// Start and trim drops only those; without one trim decodes from frame 0.
// trim/setpts are omitted when Start is 0 and scale when Scale is false.
func Build(opts Options, a Args) []string {
	bin := opts.Bin
	if bin == "" {
		bin = "ffmpeg"
	}

	inKw := ffmpeg.KwArgs{}
	if opts.HWAccel {
		inKw["hwaccel"] = "auto"
		if opts.DeviceID > 0 {
			inKw["hwaccel_device"] = opts.DeviceID
		}
	}
	trimFrom := a.Start
	if a.FrameRate > 0 && a.Start > seekPreroll {
		from := a.Start - seekPreroll
		// Half a frame early keeps frame `from` when its timestamp rounds down.
		inKw["ss"] = strconv.FormatFloat((float64(from)-0.5)/a.FrameRate, 'f', 6, 64)
		trimFrom = seekPreroll
	}
	stream := ffmpeg.Input(a.Path, inKw)

	if trimFrom > 0 {
		stream = stream.
			Filter("trim", ffmpeg.Args{}, ffmpeg.KwArgs{"start_frame": trimFrom}).
			Filter("setpts", ffmpeg.Args{"PTS-STARTPTS"})
	}
	if a.Scale {
		stream = stream.Filter("scale", ffmpeg.Args{}, ffmpeg.KwArgs{"w": a.Width, "h": a.Height})
	}

	logLevel := "error"
	if opts.Verbose {
		logLevel = "info"
	}
	out := stream.
		Output("pipe:", ffmpeg.KwArgs{
			"f":        "rawvideo",
			"pix_fmt":  "rgb24",
			"fps_mode": "passthrough",
		}).
		GlobalArgs("-hide_banner", "-nostdin", "-loglevel", logLevel)

	return append([]string{bin}, out.GetArgs()...)
}
