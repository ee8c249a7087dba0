// Package trajopt implements the constraint sets of a trajectory optimization problem over joint space:
// one JointPosition variable set per timestep, Cartesian pose constraints on a link of the robot and
// joint position constraints applied directly to the joint values.
package trajopt

import (
	"go.viam.com/trajopt/optimization"
)

// JointPosition is the joint configuration of the robot at one timestep.
type JointPosition struct {
	name   string
	values []float64
	bounds []optimization.Bounds
}

var _ optimization.VariableSet = (*JointPosition)(nil)

// NewJointPosition returns an unbounded JointPosition starting at init.
func NewJointPosition(init []float64, name string) *JointPosition {
	return &JointPosition{
		name:   name,
		values: append([]float64{}, init...),
		bounds: optimization.RepeatBounds([]optimization.Bounds{optimization.NoBound}, len(init)),
	}
}

// NewJointPositionWithBounds returns a JointPosition starting at init with one bound per joint.
func NewJointPositionWithBounds(init []float64, bounds []optimization.Bounds, name string) (*JointPosition, error) {
	if len(bounds) != len(init) {
		return nil, NewDimensionMismatchError("bounds of "+name, len(bounds), len(init))
	}
	return &JointPosition{
		name:   name,
		values: append([]float64{}, init...),
		bounds: append([]optimization.Bounds{}, bounds...),
	}, nil
}

// Name returns the name of the variable set.
func (jp *JointPosition) Name() string {
	return jp.name
}

// Rows returns the number of joints.
func (jp *JointPosition) Rows() int {
	return len(jp.values)
}

// Values returns a copy of the current joint values.
func (jp *JointPosition) Values() []float64 {
	return append([]float64{}, jp.values...)
}

// SetValues replaces the joint values. Values outside the bounds are accepted.
func (jp *JointPosition) SetValues(values []float64) error {
	if len(values) != len(jp.values) {
		return NewDimensionMismatchError("values of "+jp.name, len(values), len(jp.values))
	}
	copy(jp.values, values)
	return nil
}

// Bounds returns the bounds of each joint.
func (jp *JointPosition) Bounds() []optimization.Bounds {
	return jp.bounds
}
