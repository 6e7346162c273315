//go:build gst

package gst

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tinyzimmer/go-gst/gst"
)

func TestPack(t *testing.T) {
	// 2x2 RGB rows are 6 bytes, padded to 8.
	data := []byte{
		1, 2, 3, 4, 5, 6, 0, 0,
		7, 8, 9, 10, 11, 12, 0, 0,
	}
	got, err := pack(data, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	if !bytes.Equal(got, want) {
		t.Errorf("pack() = %v, want %v", got, want)
	}
	if _, err := pack(data[:10], 2, 2); err == nil {
		t.Error("short buffer accepted")
	}
}

func TestPipelineString(t *testing.T) {
	s := pipelineString("/v/a b.mp4", 64, 48)
	for _, want := range []string{`location="/v/a b.mp4"`, "format=RGB", "width=64", "height=48", "appsink name=sink"} {
		if !strings.Contains(s, want) {
			t.Errorf("pipeline %q missing %q", s, want)
		}
	}
}

func TestStartPipeline_ReleasesOnMissingSink(t *testing.T) {
	gst.Init(nil)
	released := 0
	orig := releasePipeline
	releasePipeline = func(p *gst.Pipeline) {
		released++
		orig(p)
	}
	defer func() { releasePipeline = orig }()

	_, _, err := startPipeline("videotestsrc num-buffers=1 ! fakesink name=out")
	if err == nil {
		t.Fatal("pipeline without appsink accepted")
	}
	if released != 1 {
		t.Errorf("released %d pipelines, want 1", released)
	}

	if _, _, err := startPipeline("no_such_element_xyz"); err == nil {
		t.Error("unparseable pipeline accepted")
	}
	if released != 1 {
		t.Errorf("unbuilt pipeline released: %d", released)
	}
}
