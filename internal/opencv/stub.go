//go:build !gocv

// Package opencv is the OpenCV decode backend. This build was compiled
// without the gocv tag, so New always fails.
package opencv

import (
	"context"
	"log/slog"

	"github.com/backmassage/posefeed/internal/decode"
)

// Decoder is unavailable in this build.
type Decoder struct{}

// New returns decode.ErrBackendUnavailable.
func New(*slog.Logger) (*Decoder, error) { return nil, decode.ErrBackendUnavailable }

func (*Decoder) Name() string { return "opencv" }

func (*Decoder) Decode(context.Context, decode.Request) (decode.Clip, error) {
	return decode.Clip{}, decode.ErrBackendUnavailable
}

func (*Decoder) Close() error { return nil }
