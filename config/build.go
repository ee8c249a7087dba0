package config

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/trajopt/logging"
	"go.viam.com/trajopt/optimization"
	"go.viam.com/trajopt/referenceframe"
	"go.viam.com/trajopt/spatialmath"
	"go.viam.com/trajopt/trajopt"
)

// VariableSetName returns the name of the joint position variable set of a timestep.
func VariableSetName(timestep int) string {
	return fmt.Sprintf("joint_position_%d", timestep)
}

// Build loads the model and creates one joint position variable set per timestep plus every configured
// constraint.
func (cfg *ProblemConfig) Build(logger logging.Logger) (*optimization.Problem, error) {
	if err := cfg.Validate("problem"); err != nil {
		return nil, err
	}
	model, err := referenceframe.ParseModelJSONFile(cfg.ModelPath(), "")
	if err != nil {
		return nil, err
	}
	if n := len(cfg.Timesteps[0]); n != model.NumJoints() {
		return nil, errors.Errorf("timesteps have %d joint values but model %q has %d joints", n, model.Name(), model.NumJoints())
	}

	attachments := make([]referenceframe.Attachment, 0, len(cfg.Attachments))
	for _, a := range cfg.Attachments {
		offset, err := a.Offset.Pose()
		if err != nil {
			return nil, errors.Wrapf(err, "attachment %q", a.Name)
		}
		attachments = append(attachments, referenceframe.Attachment{Name: a.Name, Parent: a.Parent, Offset: offset})
	}
	adjacency, err := referenceframe.NewAdjacencyMap(model, attachments...)
	if err != nil {
		return nil, err
	}
	worldToBase, err := cfg.WorldToBase.Pose()
	if err != nil {
		return nil, errors.Wrap(err, "world_to_base")
	}

	p := optimization.NewProblem()
	vars := make([]*trajopt.JointPosition, 0, len(cfg.Timesteps))
	for i, init := range cfg.Timesteps {
		bounds := optimization.RepeatBounds([]optimization.Bounds{optimization.NoBound}, len(init))
		if cfg.UseJointLimits {
			bounds = limitsToBounds(model.DoF())
		}
		v, err := trajopt.NewJointPositionWithBounds(init, bounds, VariableSetName(i))
		if err != nil {
			return nil, err
		}
		if err := p.AddVariableSet(v); err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}

	for i, c := range cfg.Cartesian {
		cs, err := c.build(model, adjacency, worldToBase, vars[c.Timestep], logger)
		if err != nil {
			return nil, errors.Wrapf(err, "cartesian constraint %d", i)
		}
		logger.Debugw("added cartesian constraint", "name", cs.Name(), "link", c.Link, "timestep", c.Timestep)
		p.AddConstraintSet(cs)
	}
	for i, j := range cfg.Joint {
		cs, err := j.build(vars)
		if err != nil {
			return nil, errors.Wrapf(err, "joint constraint %d", i)
		}
		logger.Debugw("added joint constraint", "name", cs.Name(), "timesteps", j.Timesteps)
		p.AddConstraintSet(cs)
	}

	logger.Infow("built problem",
		"model", model.Name(),
		"timesteps", len(vars),
		"variables", p.NumVariables(),
		"constraints", p.NumConstraints(),
	)
	return p, nil
}

func (cfg *CartesianConfig) build(
	model *referenceframe.SimpleModel,
	adjacency *referenceframe.AdjacencyMap,
	worldToBase spatialmath.Pose,
	position *trajopt.JointPosition,
	logger logging.Logger,
) (*trajopt.CartPosConstraint, error) {
	tcp, err := cfg.TCP.Pose()
	if err != nil {
		return nil, errors.Wrap(err, "tcp")
	}
	target, err := cfg.Target.Pose()
	if err != nil {
		return nil, errors.Wrap(err, "target")
	}
	info, err := trajopt.NewCartPosKinematicInfo(model, adjacency, worldToBase, cfg.Link, tcp, logger)
	if err != nil {
		return nil, err
	}

	opts := []trajopt.CartPosOption{trajopt.WithNumericDifferentiation(cfg.NumericDiff)}
	if cfg.RotationStep > 0 {
		opts = append(opts, trajopt.WithRotationStep(cfg.RotationStep))
	}
	c, err := trajopt.NewCartPosConstraint(target, info, position, cfg.Name, opts...)
	if err != nil {
		return nil, err
	}
	if len(cfg.Bounds) > 0 {
		if err := c.SetBounds(parseBounds(cfg.Bounds)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (cfg *JointConfig) build(vars []*trajopt.JointPosition) (*trajopt.JointPosConstraint, error) {
	constrained := make([]*trajopt.JointPosition, 0, len(cfg.Timesteps))
	for _, step := range cfg.Timesteps {
		constrained = append(constrained, vars[step])
	}
	if len(cfg.Targets) > 0 {
		return trajopt.NewJointPosConstraint(cfg.Targets, constrained, cfg.Name)
	}
	return trajopt.NewJointPosConstraintWithBounds(parseBounds(cfg.Bounds), constrained, cfg.Name)
}

func parseBounds(cfgs []BoundsConfig) []optimization.Bounds {
	bounds := make([]optimization.Bounds, 0, len(cfgs))
	for _, b := range cfgs {
		lower, upper := b.parse()
		bounds = append(bounds, optimization.Bounds{Lower: lower, Upper: upper})
	}
	return bounds
}

func limitsToBounds(limits []referenceframe.Limit) []optimization.Bounds {
	bounds := make([]optimization.Bounds, 0, len(limits))
	for _, l := range limits {
		bounds = append(bounds, optimization.Bounds{Lower: l.Min, Upper: l.Max})
	}
	return bounds
}
