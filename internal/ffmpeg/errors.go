package ffmpeg

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Decode failure categories, matched from ffmpeg stderr by [Classify].
var (
	ErrCorruptInput   = errors.New("corrupt or unsupported input")
	ErrDecoderMissing = errors.New("decoder or filter missing")
	ErrHWAccel        = errors.New("hardware decode failed")
	ErrFFmpeg         = errors.New("ffmpeg failed")
)

// Pre-compiled regexes for classifying ffmpeg stderr output. Checked in
// order by [Classify]; the first match wins.
var (
	reHWAccel = regexp.MustCompile(
		`(?i)Failed setup for format \w+: hwaccel initialisation returned error|` +
			`Device creation failed|` +
			`No device available for decoder|` +
			`hwaccel.*(failed|not supported)|` +
			`Cannot load libcuda|` +
			`Failed to initialise VAAPI connection`)

	reDecoderMissing = regexp.MustCompile(
		`(?i)Decoder \(codec \w+\) not found|` +
			`Unknown decoder|` +
			`No such filter|` +
			`Unrecognized option`)

	reCorruptInput = regexp.MustCompile(
		`(?i)Invalid data found when processing input|` +
			`moov atom not found|` +
			`No such file or directory|` +
			`Error while decoding stream|` +
			`could not find codec parameters`)
)

// Classify maps ffmpeg stderr to one of the category sentinels, or
// ErrFFmpeg when nothing matches.
func Classify(stderr string) error {
	switch {
	case reHWAccel.MatchString(stderr):
		return ErrHWAccel
	case reDecoderMissing.MatchString(stderr):
		return ErrDecoderMissing
	case reCorruptInput.MatchString(stderr):
		return ErrCorruptInput
	}
	return ErrFFmpeg
}

// DecodeError reports a failed ffmpeg decode of Path from frame Start.
// It matches its category sentinel and the process error with errors.Is.
type DecodeError struct {
	Path   string
	Start  int
	Kind   error
	Stderr string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("ffmpeg decode %s from frame %d: %v", e.Path, e.Start, e.Kind)
	if s := lastLine(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *DecodeError) Unwrap() []error { return []error{e.Kind, e.Err} }

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
