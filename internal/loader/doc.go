// Package loader is the public face of posefeed: it turns a video set and a
// configuration into a BatchSource, an iterator of model-ready batches with
// a fixed number of batches per epoch.
//
// MakeBatchSource counts frames, plans the pipeline, picks a decode backend
// and wires them together. The Iterator it embeds reshapes raw pipeline
// output for the model type and applies the stage's reset policy: training
// sources roll into the next epoch on their own, prediction sources report
// ErrExhausted until Reset is called.
package loader
