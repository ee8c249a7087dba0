package trajopt

import (
	"github.com/pkg/errors"

	"go.viam.com/trajopt/optimization"
)

// DefaultJointPosName is the name of a JointPosConstraint built without one.
const DefaultJointPosName = "JointPos"

// JointPosConstraint bounds the raw joint values of one or more timesteps. Its residuals are the joint
// values of each variable set in order, so its jacobian is an identity block per variable set.
type JointPosConstraint struct {
	name   string
	nDoF   int
	bounds []optimization.Bounds
	vars   []*JointPosition
	// index maps a variable set name to its position in vars
	index map[string]int
}

var _ optimization.ConstraintSet = (*JointPosConstraint)(nil)

// NewJointPosConstraint holds every variable set at targets.
func NewJointPosConstraint(targets []float64, vars []*JointPosition, name string) (*JointPosConstraint, error) {
	bounds := make([]optimization.Bounds, 0, len(targets))
	for _, target := range targets {
		bounds = append(bounds, optimization.NewBoundsEqual(target))
	}
	return NewJointPosConstraintWithBounds(bounds, vars, name)
}

// NewJointPosConstraintWithBounds keeps every variable set within bounds, one per joint.
func NewJointPosConstraintWithBounds(
	bounds []optimization.Bounds,
	vars []*JointPosition,
	name string,
) (*JointPosConstraint, error) {
	if len(vars) == 0 {
		return nil, errors.New("joint position constraint needs at least one variable set")
	}
	if name == "" {
		name = DefaultJointPosName
	}
	nDoF := vars[0].Rows()
	index := make(map[string]int, len(vars))
	for i, v := range vars {
		if v.Rows() != nDoF {
			return nil, NewDimensionMismatchError("joint position "+v.Name(), v.Rows(), nDoF)
		}
		if _, ok := index[v.Name()]; ok {
			return nil, errors.Errorf("joint position %q given more than once", v.Name())
		}
		index[v.Name()] = i
	}
	if len(bounds) != nDoF {
		return nil, NewDimensionMismatchError("bounds of "+name, len(bounds), nDoF)
	}
	return &JointPosConstraint{
		name:   name,
		nDoF:   nDoF,
		bounds: optimization.RepeatBounds(bounds, len(vars)),
		vars:   append([]*JointPosition{}, vars...),
		index:  index,
	}, nil
}

// Name returns the name of the constraint.
func (c *JointPosConstraint) Name() string {
	return c.name
}

// Rows returns the number of joints times the number of variable sets.
func (c *JointPosConstraint) Rows() int {
	return c.nDoF * len(c.vars)
}

// Values returns the joint values of every variable set, concatenated in order.
func (c *JointPosConstraint) Values() ([]float64, error) {
	values := make([]float64, 0, c.Rows())
	for _, v := range c.vars {
		values = append(values, v.Values()...)
	}
	return values, nil
}

// Bounds returns the joint bounds repeated for each variable set.
func (c *JointPosConstraint) Bounds() []optimization.Bounds {
	return c.bounds
}

// FillJacobianBlock writes an identity block at the rows of the named variable set.
func (c *JointPosConstraint) FillJacobianBlock(varSet string, jac *optimization.Jacobian) error {
	i, ok := c.index[varSet]
	if !ok {
		return nil
	}
	for j := 0; j < c.nDoF; j++ {
		jac.Set(i*c.nDoF+j, j, 1)
	}
	return nil
}
