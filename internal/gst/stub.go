//go:build !gst

// Package gst is the GStreamer decode backend. This build was compiled
// without the gst tag, so New always fails.
package gst

import (
	"context"
	"log/slog"

	"github.com/backmassage/posefeed/internal/decode"
)

// Decoder is unavailable in this build.
type Decoder struct{}

// New returns decode.ErrBackendUnavailable.
func New(*slog.Logger) (*Decoder, error) { return nil, decode.ErrBackendUnavailable }

func (*Decoder) Name() string { return "gstreamer" }

func (*Decoder) Decode(context.Context, decode.Request) (decode.Clip, error) {
	return decode.Clip{}, decode.ErrBackendUnavailable
}

func (*Decoder) Close() error { return nil }
