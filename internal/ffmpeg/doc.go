// Package ffmpeg is the default decode backend: it describes each read as an
// ffmpeg filter graph (trim, setpts, scale to packed RGB on a pipe), runs
// ffmpeg as a subprocess, and slices the raw stream into frames.
//
// Sequential requests against the same file reuse one running process, so
// reading a video front to back decodes every frame once. A request that
// jumps backwards, or far ahead, restarts the process at the new start
// frame. When hardware-accelerated decode fails, the decoder falls back to
// software decode for the rest of its life.
package ffmpeg
