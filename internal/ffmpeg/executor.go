package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
)

// maxStderr bounds the stderr kept for classification.
const maxStderr = 64 << 10

// process is one running ffmpeg command streaming raw frames on stdout.
type process struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.ReadCloser
	stderr *tailBuffer

	waitOnce sync.Once
	waitErr  error
}

// start launches argv. The process lives until kill or until it exits on
// its own; it is not tied to any single request's context.
func start(argv []string) (*process, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stderr := &tailBuffer{max: maxStderr}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}
	return &process{cmd: cmd, cancel: cancel, stdout: stdout, stderr: stderr}, nil
}

// readFrame fills buf with the next frame. It returns io.EOF at a clean
// frame boundary and io.ErrUnexpectedEOF on a truncated frame.
func (p *process) readFrame(ctx context.Context, buf []byte) error {
	stop := context.AfterFunc(ctx, p.cancel)
	defer stop()
	_, err := io.ReadFull(p.stdout, buf)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// wait reaps the process and returns its exit error.
func (p *process) wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		p.cancel()
	})
	return p.waitErr
}

// kill stops the process and reaps it.
func (p *process) kill() {
	p.cancel()
	_ = p.wait()
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.buf.Write(b)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}

// exitErr reports whether err is a non-zero process exit.
func exitErr(err error) bool {
	var ee *exec.ExitError
	return errors.As(err, &ee)
}
