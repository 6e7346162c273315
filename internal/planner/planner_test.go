package planner

import (
	"errors"
	"strings"
	"testing"

	"github.com/backmassage/posefeed/internal/config"
)

// --- Helper builders ---

func defaultCfg() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Base.Train.SequenceLength = 16
	cfg.Base.Predict.SequenceLength = 32
	cfg.Context.Train.BatchSize = 8
	cfg.Context.Predict.BatchSize = 12
	return &cfg
}

func TestBuildSpec_PolicyTable(t *testing.T) {
	tests := []struct {
		name        string
		stage       Stage
		model       ModelType
		consecutive bool
		wantSeq     int
		wantStep    int
		wantBatch   int
		wantShuffle bool
		wantPadLast bool
		wantSucc    bool
	}{
		{"train base", StageTrain, ModelBase, false, 16, 16, 1, true, false, false},
		{"predict base", StagePredict, ModelBase, false, 32, 32, 1, false, false, false},
		{"predict context", StagePredict, ModelContext, false, 5, 1, 12, false, true, false},
		{"train context successive", StageTrain, ModelContext, true, 8, 8, 1, true, false, true},
		{"train context independent", StageTrain, ModelContext, false, 5, 5, 8, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultCfg()
			cfg.Context.Train.ConsecutiveSequences = tt.consecutive
			spec, err := BuildSpec(tt.stage, tt.model, Dims{}, cfg, AugDefault)
			if err != nil {
				t.Fatalf("BuildSpec: %v", err)
			}
			if spec.SequenceLength != tt.wantSeq || spec.Step != tt.wantStep || spec.BatchSize != tt.wantBatch {
				t.Errorf("seq/step/batch = %d/%d/%d, want %d/%d/%d",
					spec.SequenceLength, spec.Step, spec.BatchSize, tt.wantSeq, tt.wantStep, tt.wantBatch)
			}
			if spec.RandomShuffle != tt.wantShuffle {
				t.Errorf("RandomShuffle = %v, want %v", spec.RandomShuffle, tt.wantShuffle)
			}
			if spec.PadLastBatch != tt.wantPadLast {
				t.Errorf("PadLastBatch = %v, want %v", spec.PadLastBatch, tt.wantPadLast)
			}
			if !spec.PadSequences {
				t.Error("PadSequences = false, want true")
			}
			if spec.ContextSuccessive != tt.wantSucc {
				t.Errorf("ContextSuccessive = %v, want %v", spec.ContextSuccessive, tt.wantSucc)
			}
			if spec.ReaderName != "reader" {
				t.Errorf("ReaderName = %q", spec.ReaderName)
			}
		})
	}
}

func TestBuildSpec_CopiesGeneral(t *testing.T) {
	cfg := defaultCfg()
	cfg.General.Seed = 7
	cfg.General.NumThreads = 3
	cfg.General.DeviceID = 1
	cfg.General.Device = config.DeviceCPU
	cfg.General.InitialFill = 32

	spec, err := BuildSpec(StageTrain, ModelBase, Dims{Height: 64, Width: 48}, cfg, AugDLC)
	if err != nil {
		t.Fatal(err)
	}
	if spec.Seed != 7 || spec.NumThreads != 3 || spec.DeviceID != 1 || spec.Device != config.DeviceCPU || spec.InitialFill != 32 {
		t.Errorf("general not copied: %+v", spec)
	}
	if spec.Resize != (Dims{Height: 64, Width: 48}) {
		t.Errorf("Resize = %v", spec.Resize)
	}
	if spec.Mean != config.DefaultMean || spec.Std != config.DefaultStd {
		t.Errorf("normalization = %v / %v", spec.Mean, spec.Std)
	}
}

func TestBuildSpec_Augmentation(t *testing.T) {
	tests := []struct {
		name  string
		stage Stage
		aug   AugMode
		want  AugMode
	}{
		{"train keeps dlc", StageTrain, AugDLC, AugDLC},
		{"train keeps dlc-light", StageTrain, AugDLCLight, AugDLCLight},
		{"train empty is default", StageTrain, "", AugDefault},
		{"predict forces default", StagePredict, AugDLC, AugDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := BuildSpec(tt.stage, ModelBase, Dims{}, defaultCfg(), tt.aug)
			if err != nil {
				t.Fatal(err)
			}
			if spec.Augmentation != tt.want {
				t.Errorf("Augmentation = %q, want %q", spec.Augmentation, tt.want)
			}
		})
	}
}

func TestBuildSpec_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		stage   Stage
		model   ModelType
		mutate  func(*config.Config)
		resize  Dims
		aug     AugMode
		wantKey string
	}{
		{"missing base train seq", StageTrain, ModelBase,
			func(c *config.Config) { c.Base.Train.SequenceLength = 0 }, Dims{}, AugDefault, "base.train.sequence_length"},
		{"missing base predict seq", StagePredict, ModelBase,
			func(c *config.Config) { c.Base.Predict.SequenceLength = 0 }, Dims{}, AugDefault, "base.predict.sequence_length"},
		{"missing context predict batch", StagePredict, ModelContext,
			func(c *config.Config) { c.Context.Predict.BatchSize = 0 }, Dims{}, AugDefault, "context.predict.batch_size"},
		{"negative context train batch", StageTrain, ModelContext,
			func(c *config.Config) { c.Context.Train.BatchSize = -2 }, Dims{}, AugDefault, "context.train.batch_size"},
		{"half resize", StageTrain, ModelBase,
			func(c *config.Config) {}, Dims{Height: 64}, AugDefault, "resize"},
		{"bad augmentation", StageTrain, ModelBase,
			func(c *config.Config) {}, Dims{}, "heavy", "augmentation"},
		{"bad general", StageTrain, ModelBase,
			func(c *config.Config) { c.General.NumThreads = 0 }, Dims{}, AugDefault, "general.num_threads"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultCfg()
			tt.mutate(cfg)
			_, err := BuildSpec(tt.stage, tt.model, tt.resize, cfg, tt.aug)
			var ce *config.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("BuildSpec() = %v, want *ConfigurationError", err)
			}
			if ce.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", ce.Key, tt.wantKey)
			}
		})
	}
}

func TestBuildSpec_UnusedBranchNotValidated(t *testing.T) {
	cfg := defaultCfg()
	cfg.Context.Train.BatchSize = 0
	if _, err := BuildSpec(StageTrain, ModelBase, Dims{}, cfg, AugDefault); err != nil {
		t.Errorf("BuildSpec(train, base) with bad context config = %v, want nil", err)
	}
}

func TestValidate_Stepping(t *testing.T) {
	tests := []struct {
		name    string
		seq     int
		step    int
		wantErr bool
	}{
		{"overlapping", 5, 1, false},
		{"disjoint", 5, 5, false},
		{"single frame", 1, 1, false},
		{"step 2", 5, 2, true},
		{"step larger than seq", 5, 6, true},
		{"step 0", 5, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := PipelineSpec{Model: ModelContext, SequenceLength: tt.seq, Step: tt.step, BatchSize: 4}
			err := spec.Validate()
			var se *UnsupportedSteppingError
			if got := errors.As(err, &se); got != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if se != nil && !strings.Contains(se.Error(), "step=") {
				t.Errorf("message = %q", se.Error())
			}
		})
	}
}

func TestParse(t *testing.T) {
	if s, err := ParseStage("predict"); err != nil || s != StagePredict {
		t.Errorf("ParseStage(predict) = %q, %v", s, err)
	}
	if _, err := ParseStage("eval"); err == nil {
		t.Error("ParseStage(eval) succeeded")
	}
	if m, err := ParseModelType("context"); err != nil || m != ModelContext {
		t.Errorf("ParseModelType(context) = %q, %v", m, err)
	}
	if _, err := ParseModelType("heatmap"); err == nil {
		t.Error("ParseModelType(heatmap) succeeded")
	}
	if a, err := ParseAugMode(""); err != nil || a != AugDefault {
		t.Errorf("ParseAugMode(\"\") = %q, %v", a, err)
	}
	if !AugDLCLight.Perturbs() || AugNone.Perturbs() || AugDefault.Perturbs() {
		t.Error("Perturbs() mismatch")
	}
}
