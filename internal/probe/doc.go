// Package probe inspects video files with ffprobe and counts their frames.
//
// One JSON call per file yields the container and primary video stream
// metadata. When the container does not record a frame count (or an exact
// count is requested) the file is decoded by ffprobe to count frames, and as
// a last resort the count is estimated from duration and frame rate.
//
// [CountFrames] probes a list of files concurrently and returns per-file
// results in input order along with their total.
package probe
