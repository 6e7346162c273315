//go:build !gocv

package opencv

import (
	"errors"
	"testing"

	"github.com/backmassage/posefeed/internal/decode"
)

func TestNew_Unavailable(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, decode.ErrBackendUnavailable) {
		t.Errorf("New() error = %v, want ErrBackendUnavailable", err)
	}
}
