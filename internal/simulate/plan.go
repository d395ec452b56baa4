// Package simulate drives a synthetic training loop through the profilers.
package simulate

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	errEpochsRequired      = errors.New("epochs must be positive")
	errStepsRequired       = errors.New("steps_per_epoch must be positive")
	errPhasesRequired      = errors.New("plan has no phases")
	errPhaseMissingName    = errors.New("phase missing name")
	errDuplicatePhase      = errors.New("duplicate phase name")
	errTransferMissingKey  = errors.New("transfer missing key")
	errTransferNameClash   = errors.New("transfer key clashes with a phase name")
	errDuplicateTransfer   = errors.New("duplicate transfer key in phase")
	errNegativeDuration    = errors.New("duration cannot be negative")
	errNegativeTransferred = errors.New("transfer bytes cannot be negative")
	errPhaseNotInPlan      = errors.New("total key is not a phase of the plan")
)

// Plan describes the shape of a simulated training run.
type Plan struct {
	Epochs        int      `yaml:"epochs"`
	StepsPerEpoch int      `yaml:"steps_per_epoch"`
	Phases        []*Phase `yaml:"phases"`
}

// Phase is one timed stage of a training step.
type Phase struct {
	Name      string        `yaml:"name"`
	Duration  time.Duration `yaml:"duration"`
	Transfers []*Transfer   `yaml:"transfers,omitempty"`
}

// Transfer is a data movement performed inside a phase. It is timed under its
// own key so the data move report can derive throughput.
type Transfer struct {
	Key      string        `yaml:"key"`
	Bytes    int64         `yaml:"bytes"`
	Duration time.Duration `yaml:"duration"`
}

// DefaultPlan returns the plan used when no plan file is configured: a small
// mixed-precision step that streams parameters to the GPU and gradients back.
func DefaultPlan() *Plan {
	return &Plan{
		Epochs:        2,
		StepsPerEpoch: 5,
		Phases: []*Phase{
			{
				Name:     "FWD",
				Duration: 12 * time.Millisecond,
				Transfers: []*Transfer{
					{Key: "FWD_param_cpu_to_gpu", Bytes: 8 << 20, Duration: 3 * time.Millisecond},
				},
			},
			{
				Name:     "BWD",
				Duration: 24 * time.Millisecond,
				Transfers: []*Transfer{
					{Key: "BWD_param_cpu_to_gpu", Bytes: 8 << 20, Duration: 3 * time.Millisecond},
					{Key: "BWD_grad_gpu_to_cpu", Bytes: 4 << 20, Duration: 2 * time.Millisecond},
				},
			},
			{
				Name:     "ADAM",
				Duration: 8 * time.Millisecond,
				Transfers: []*Transfer{
					{Key: "ADAM_param_fp32_to_fp16", Bytes: 16 << 20, Duration: 4 * time.Millisecond},
				},
			},
		},
	}
}

// LoadPlan reads and validates a plan file.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan %s: %w", path, err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", path, err)
	}

	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("validating plan %s: %w", path, err)
	}

	return &plan, nil
}

// Validate checks that the plan can be replayed without misusing the profilers.
func (p *Plan) Validate() error {
	if p.Epochs <= 0 {
		return errEpochsRequired
	}

	if p.StepsPerEpoch <= 0 {
		return errStepsRequired
	}

	if len(p.Phases) == 0 {
		return errPhasesRequired
	}

	phases := make(map[string]struct{}, len(p.Phases))
	for i, phase := range p.Phases {
		if phase == nil || phase.Name == "" {
			return fmt.Errorf("phase %d: %w", i, errPhaseMissingName)
		}

		if _, ok := phases[phase.Name]; ok {
			return fmt.Errorf("phase %q: %w", phase.Name, errDuplicatePhase)
		}

		if phase.Duration < 0 {
			return fmt.Errorf("phase %q: %w", phase.Name, errNegativeDuration)
		}

		phases[phase.Name] = struct{}{}
	}

	for _, phase := range p.Phases {
		if err := phase.validateTransfers(phases); err != nil {
			return fmt.Errorf("phase %q: %w", phase.Name, err)
		}
	}

	return nil
}

func (p *Phase) validateTransfers(phases map[string]struct{}) error {
	keys := make(map[string]struct{}, len(p.Transfers))

	for i, tr := range p.Transfers {
		switch {
		case tr == nil || tr.Key == "":
			return fmt.Errorf("transfer %d: %w", i, errTransferMissingKey)
		case tr.Bytes < 0:
			return fmt.Errorf("transfer %q: %w", tr.Key, errNegativeTransferred)
		case tr.Duration < 0:
			return fmt.Errorf("transfer %q: %w", tr.Key, errNegativeDuration)
		}

		if _, ok := phases[tr.Key]; ok {
			return fmt.Errorf("transfer %q: %w", tr.Key, errTransferNameClash)
		}

		if _, ok := keys[tr.Key]; ok {
			return fmt.Errorf("transfer %q: %w", tr.Key, errDuplicateTransfer)
		}

		keys[tr.Key] = struct{}{}
	}

	return nil
}

// RequirePhases checks that every key is the name of a phase in the plan.
func (p *Plan) RequirePhases(keys ...string) error {
	for _, key := range keys {
		found := false
		for _, phase := range p.Phases {
			if phase.Name == key {
				found = true
				break
			}
		}

		if !found {
			return fmt.Errorf("%q: %w", key, errPhaseNotInPlan)
		}
	}

	return nil
}
