// Package config reads the JSON description of a trajectory optimization problem and builds the variable
// sets and constraints it describes.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/trajopt/spatialmath"
)

// ProblemConfig describes a robot, its trajectory variables and the constraints on them.
type ProblemConfig struct {
	// ModelFile is a kinematics JSON file, relative to the config file unless absolute.
	ModelFile      string                  `json:"model_file"`
	WorldToBase    *spatialmath.PoseConfig `json:"world_to_base,omitempty"`
	Attachments    []AttachmentConfig      `json:"attachments,omitempty"`
	Timesteps      [][]float64             `json:"timesteps"`
	UseJointLimits bool                    `json:"use_joint_limits,omitempty"`
	Cartesian      []CartesianConfig       `json:"cartesian,omitempty"`
	Joint          []JointConfig           `json:"joint,omitempty"`

	// directory of the file the config was read from
	dir string
}

// AttachmentConfig rigidly fixes a named link to a link of the model or to another attachment.
type AttachmentConfig struct {
	Name   string                  `json:"name"`
	Parent string                  `json:"parent"`
	Offset *spatialmath.PoseConfig `json:"offset,omitempty"`
}

// CartesianConfig constrains the pose of a link at one timestep.
type CartesianConfig struct {
	Name         string                  `json:"name,omitempty"`
	Link         string                  `json:"link"`
	TCP          *spatialmath.PoseConfig `json:"tcp,omitempty"`
	Target       *spatialmath.PoseConfig `json:"target"`
	Timestep     int                     `json:"timestep"`
	Bounds       []BoundsConfig          `json:"bounds,omitempty"`
	NumericDiff  bool                    `json:"numeric_diff,omitempty"`
	RotationStep float64                 `json:"rotation_step,omitempty"`
}

// JointConfig constrains the joint values of one or more timesteps, either to exact targets or to bounds.
type JointConfig struct {
	Name      string         `json:"name,omitempty"`
	Targets   []float64      `json:"targets,omitempty"`
	Bounds    []BoundsConfig `json:"bounds,omitempty"`
	Timesteps []int          `json:"timesteps"`
}

// BoundsConfig is a pair of bounds. A missing side is unbounded.
type BoundsConfig struct {
	Lower *float64 `json:"lower,omitempty"`
	Upper *float64 `json:"upper,omitempty"`
}

func (cfg BoundsConfig) parse() (lower, upper float64) {
	lower, upper = math.Inf(-1), math.Inf(1)
	if cfg.Lower != nil {
		lower = *cfg.Lower
	}
	if cfg.Upper != nil {
		upper = *cfg.Upper
	}
	return lower, upper
}

// Read parses the problem config at path and validates it.
func Read(path string) (*ProblemConfig, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read problem config")
	}
	cfg, err := FromJSON(data)
	if err != nil {
		return nil, errors.Wrapf(err, "problem config %q", path)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// FromJSON parses and validates a problem config. A relative model file is resolved against the working
// directory.
func FromJSON(data []byte) (*ProblemConfig, error) {
	cfg := &ProblemConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal problem config")
	}
	if err := cfg.Validate("problem"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ModelPath returns the path of the model file.
func (cfg *ProblemConfig) ModelPath() string {
	if filepath.IsAbs(cfg.ModelFile) || cfg.dir == "" {
		return cfg.ModelFile
	}
	return filepath.Join(cfg.dir, cfg.ModelFile)
}

// Validate ensures all parts of the config are valid. Every problem found is reported.
func (cfg *ProblemConfig) Validate(path string) error {
	var errs error
	if cfg.ModelFile == "" {
		multierr.AppendInto(&errs, utils.NewConfigValidationFieldRequiredError(path, "model_file"))
	}
	if len(cfg.Timesteps) == 0 {
		multierr.AppendInto(&errs, utils.NewConfigValidationFieldRequiredError(path, "timesteps"))
	}
	for i, step := range cfg.Timesteps {
		if len(step) != len(cfg.Timesteps[0]) {
			multierr.AppendInto(&errs, utils.NewConfigValidationError(fmt.Sprintf("%s.timesteps.%d", path, i),
				errors.Errorf("has %d joint values, timestep 0 has %d", len(step), len(cfg.Timesteps[0]))))
		}
	}
	for i, a := range cfg.Attachments {
		multierr.AppendInto(&errs, a.Validate(fmt.Sprintf("%s.attachments.%d", path, i)))
	}
	for i, c := range cfg.Cartesian {
		multierr.AppendInto(&errs, c.Validate(fmt.Sprintf("%s.cartesian.%d", path, i), len(cfg.Timesteps)))
	}
	for i, j := range cfg.Joint {
		multierr.AppendInto(&errs, j.Validate(fmt.Sprintf("%s.joint.%d", path, i), len(cfg.Timesteps)))
	}
	return errs
}

// Validate ensures all parts of the config are valid.
func (cfg *AttachmentConfig) Validate(path string) error {
	var errs error
	if cfg.Name == "" {
		multierr.AppendInto(&errs, utils.NewConfigValidationFieldRequiredError(path, "name"))
	}
	if cfg.Parent == "" {
		multierr.AppendInto(&errs, utils.NewConfigValidationFieldRequiredError(path, "parent"))
	}
	return errs
}

// Validate ensures all parts of the config are valid. numSteps is the number of timesteps of the problem.
func (cfg *CartesianConfig) Validate(path string, numSteps int) error {
	var errs error
	if cfg.Link == "" {
		multierr.AppendInto(&errs, utils.NewConfigValidationFieldRequiredError(path, "link"))
	}
	if cfg.Target == nil {
		multierr.AppendInto(&errs, utils.NewConfigValidationFieldRequiredError(path, "target"))
	}
	if cfg.Timestep < 0 || cfg.Timestep >= numSteps {
		multierr.AppendInto(&errs, utils.NewConfigValidationError(path,
			errors.Errorf("timestep %d out of range [0, %d)", cfg.Timestep, numSteps)))
	}
	if len(cfg.Bounds) != 0 && len(cfg.Bounds) != 6 {
		multierr.AppendInto(&errs, utils.NewConfigValidationError(path,
			errors.Errorf("bounds must have 6 entries, has %d", len(cfg.Bounds))))
	}
	if cfg.RotationStep < 0 {
		multierr.AppendInto(&errs, utils.NewConfigValidationError(path, errors.New("rotation_step must be positive")))
	}
	return errs
}

// Validate ensures all parts of the config are valid. numSteps is the number of timesteps of the problem.
func (cfg *JointConfig) Validate(path string, numSteps int) error {
	var errs error
	if (len(cfg.Targets) == 0) == (len(cfg.Bounds) == 0) {
		multierr.AppendInto(&errs, utils.NewConfigValidationError(path, errors.New("exactly one of targets or bounds is required")))
	}
	if len(cfg.Timesteps) == 0 {
		multierr.AppendInto(&errs, utils.NewConfigValidationFieldRequiredError(path, "timesteps"))
	}
	for _, step := range cfg.Timesteps {
		if step < 0 || step >= numSteps {
			multierr.AppendInto(&errs, utils.NewConfigValidationError(path,
				errors.Errorf("timestep %d out of range [0, %d)", step, numSteps)))
		}
	}
	return errs
}
