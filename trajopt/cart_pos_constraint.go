package trajopt

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/trajopt/kinematics"
	"go.viam.com/trajopt/optimization"
	"go.viam.com/trajopt/spatialmath"
)

const (
	// DefaultCartPosName is the name of a CartPosConstraint built without one.
	DefaultCartPosName = "CartPos"

	// DefaultRotationStep is the twist scale used to differentiate the rotational error. The rotation rows
	// carry a truncation error proportional to it.
	DefaultRotationStep = 1e-5

	cartPosRows = 6
)

// CartPosOption configures a CartPosConstraint.
type CartPosOption func(*CartPosConstraint)

// WithNumericDifferentiation makes the constraint differentiate its whole residual with central differences
// instead of using the kinematic jacobian.
func WithNumericDifferentiation(numeric bool) CartPosOption {
	return func(c *CartPosConstraint) {
		c.numeric = numeric
	}
}

// WithRotationStep sets the step used to differentiate the rotational error.
func WithRotationStep(step float64) CartPosOption {
	return func(c *CartPosConstraint) {
		c.rotationStep = step
	}
}

// CartPosConstraint constrains the pose of a link, offset by a tool center point, to a target pose in the
// world. Its six residuals are the translation and the angle axis rotation of the pose error
// inverse(target) * actual, expressed in the target frame.
type CartPosConstraint struct {
	name         string
	targetPose   spatialmath.Pose
	targetInv    spatialmath.Pose
	info         *CartPosKinematicInfo
	position     *JointPosition
	nDoF         int
	bounds       []optimization.Bounds
	numeric      bool
	rotationStep float64
}

var _ optimization.ConstraintSet = (*CartPosConstraint)(nil)

// NewCartPosConstraint returns a constraint holding the link described by info at target, evaluated at the
// joint values of position. The residuals are bounded to zero.
func NewCartPosConstraint(
	target spatialmath.Pose,
	info *CartPosKinematicInfo,
	position *JointPosition,
	name string,
	opts ...CartPosOption,
) (*CartPosConstraint, error) {
	if info == nil || position == nil {
		return nil, errors.New("kinematic info and joint position are required")
	}
	if target == nil {
		target = spatialmath.NewZeroPose()
	}
	if name == "" {
		name = DefaultCartPosName
	}
	c := &CartPosConstraint{
		name:         name,
		info:         info,
		position:     position,
		nDoF:         info.Manip().NumJoints(),
		bounds:       optimization.RepeatBounds([]optimization.Bounds{optimization.BoundZero}, cartPosRows),
		rotationStep: DefaultRotationStep,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.nDoF <= 0 {
		return nil, errors.Errorf("kinematic chain %q has no joints", info.Manip().Name())
	}
	if position.Rows() != c.nDoF {
		return nil, NewDimensionMismatchError("joint position "+position.Name(), position.Rows(), c.nDoF)
	}
	if !(c.rotationStep > 0) {
		return nil, errors.Errorf("rotation step must be positive, got %v", c.rotationStep)
	}
	c.SetTargetPose(target)
	return c, nil
}

// Name returns the name of the constraint.
func (c *CartPosConstraint) Name() string {
	return c.name
}

// Rows returns the number of residuals, always six.
func (c *CartPosConstraint) Rows() int {
	return cartPosRows
}

// Values returns the residuals at the current joint values.
func (c *CartPosConstraint) Values() ([]float64, error) {
	return c.CalcValues(c.position.Values())
}

// CalcValues returns the residuals at the given joint values: the translation of the pose error followed
// by its rotation as an angle axis vector.
func (c *CartPosConstraint) CalcValues(joints []float64) ([]float64, error) {
	poseErr, err := c.poseError(joints)
	if err != nil {
		return nil, err
	}
	pt := poseErr.Point()
	rot := spatialmath.CalcRotationalError(poseErr.Orientation())
	return []float64{pt.X, pt.Y, pt.Z, rot.X, rot.Y, rot.Z}, nil
}

// Bounds returns the bounds of the six residuals.
func (c *CartPosConstraint) Bounds() []optimization.Bounds {
	return c.bounds
}

// SetBounds replaces the bounds of the six residuals.
func (c *CartPosConstraint) SetBounds(bounds []optimization.Bounds) error {
	if len(bounds) != cartPosRows {
		return NewDimensionMismatchError("bounds of "+c.name, len(bounds), cartPosRows)
	}
	c.bounds = append([]optimization.Bounds{}, bounds...)
	return nil
}

// FillJacobianBlock writes the derivative of the residuals with respect to the joint position into rows
// 0-5 and columns 0-n of jac. Any other variable set is left untouched.
func (c *CartPosConstraint) FillJacobianBlock(varSet string, jac *optimization.Jacobian) error {
	if varSet != c.position.Name() {
		return nil
	}
	return c.CalcJacobianBlock(c.position.Values(), jac)
}

// CalcJacobianBlock writes the derivative of the residuals at the given joint values into jac.
//
// The translation rows come straight from the geometric jacobian of the tool center point expressed in the
// target frame. The angular rows of that jacobian are angular velocities rather than derivatives of the
// angle axis error, so each one is replaced by the change of the rotational error under a small twist along
// its column.
func (c *CartPosConstraint) CalcJacobianBlock(joints []float64, jac *optimization.Jacobian) error {
	var block *mat.Dense
	var err error
	if c.numeric {
		block, err = c.numericJacobian(joints)
	} else {
		block, err = c.hybridJacobian(joints)
	}
	if err != nil {
		return err
	}
	for r := 0; r < cartPosRows; r++ {
		for col := 0; col < c.nDoF; col++ {
			jac.Set(r, col, block.At(r, col))
		}
	}
	return nil
}

// SetTargetPose replaces the target pose.
func (c *CartPosConstraint) SetTargetPose(target spatialmath.Pose) {
	c.targetPose = target
	c.targetInv = spatialmath.PoseInverse(target)
}

// TargetPose returns the target pose.
func (c *CartPosConstraint) TargetPose() spatialmath.Pose {
	return c.targetPose
}

// CurrentPose returns the pose of the tool center point in the world at the current joint values.
func (c *CartPosConstraint) CurrentPose() (spatialmath.Pose, error) {
	return c.worldPose(c.position.Values())
}

// KinematicInfo returns the kinematic binding of the constraint.
func (c *CartPosConstraint) KinematicInfo() *CartPosKinematicInfo {
	return c.info
}

// worldPose is worldToBase * fk * linkOffset * tcp.
func (c *CartPosConstraint) worldPose(joints []float64) (spatialmath.Pose, error) {
	if len(joints) != c.nDoF {
		return nil, NewDimensionMismatchError("joint values", len(joints), c.nDoF)
	}
	fk, err := c.info.Manip().CalcFwdKin(joints, c.info.kinLink.LinkName)
	if err != nil {
		return nil, errors.Wrapf(err, "constraint %q", c.name)
	}
	return spatialmath.Compose(spatialmath.Compose(c.info.WorldToBase(), fk), c.info.tipOffset()), nil
}

func (c *CartPosConstraint) poseError(joints []float64) (spatialmath.Pose, error) {
	actual, err := c.worldPose(joints)
	if err != nil {
		return nil, err
	}
	return spatialmath.Compose(c.targetInv, actual), nil
}

func (c *CartPosConstraint) hybridJacobian(joints []float64) (*mat.Dense, error) {
	info := c.info
	kinLink := info.kinLink.LinkName
	jac, err := info.Manip().CalcJacobian(joints, kinLink)
	if err != nil {
		return nil, errors.Wrapf(err, "constraint %q", c.name)
	}
	tf0, err := info.Manip().CalcFwdKin(joints, kinLink)
	if err != nil {
		return nil, errors.Wrapf(err, "constraint %q", c.name)
	}

	worldKinLink := spatialmath.Compose(info.WorldToBase(), tf0)
	kinematics.ChangeBase(jac, info.WorldToBase())
	kinematics.ChangeRefPoint(jac, spatialmath.RotateVector(worldKinLink.Orientation(), info.tipOffset().Point()))
	kinematics.ChangeBase(jac, c.targetInv)

	poseErr := spatialmath.Compose(c.targetInv, spatialmath.Compose(worldKinLink, info.tipOffset()))
	rotErr := spatialmath.CalcRotationalError(poseErr.Orientation())
	h := c.rotationStep
	twist := make([]float64, cartPosRows)
	for col := 0; col < c.nDoF; col++ {
		mat.Col(twist, col, jac)
		linear, angular := spatialmath.TwistFromSlice(twist)
		perturbed := spatialmath.AddTwist(poseErr, linear, angular, h)
		d := spatialmath.CalcRotationalError(perturbed.Orientation()).Sub(rotErr).Mul(1 / h)
		jac.Set(3, col, d.X)
		jac.Set(4, col, d.Y)
		jac.Set(5, col, d.Z)
	}
	return jac, nil
}

func (c *CartPosConstraint) numericJacobian(joints []float64) (*mat.Dense, error) {
	var evalErr error
	jac := mat.NewDense(cartPosRows, c.nDoF, nil)
	fd.Jacobian(jac, func(y, x []float64) {
		if evalErr != nil {
			return
		}
		var values []float64
		if values, evalErr = c.CalcValues(x); evalErr != nil {
			return
		}
		copy(y, values)
	}, joints, &fd.JacobianSettings{Formula: fd.Central})
	if evalErr != nil {
		return nil, evalErr
	}
	return jac, nil
}
