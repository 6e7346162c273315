// Package planner turns a (stage, model type) pair and the loader config
// into a PipelineSpec, the complete reader/decode/augment description for
// one batch source, and computes the per-epoch iteration count and
// iterator settings that go with it.
//
// Every decision is a fixed policy table keyed by the tagged pair; there is
// no string dispatch outside [ParseStage], [ParseModelType] and
// [ParseAugMode].
package planner
