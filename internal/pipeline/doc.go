// Package pipeline turns a PipelineSpec and a set of counted videos into a
// stream of normalized batches.
//
// A pipeline has three parts:
//
//   - Description: the declarative op graph (reader, resize, augment,
//     normalize) built from the spec, used for logging and the CLI.
//   - Reader: enumerates sequence start positions per file, shuffles them
//     through a seeded reservoir and groups them into batches.
//   - Pipeline: executes one batch per Next call. Read and resize are pushed
//     down into the decode backend; augmentation and normalization run on a
//     bounded worker pool.
//
// Discover finds video files under a directory for callers that start from
// a folder instead of an explicit file list.
package pipeline
