package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/trajopt/kinematics"
	"go.viam.com/trajopt/spatialmath"
)

// SimpleModel is a serial kinematic chain: an ordered list of frames from the base outwards to the end effector.
// Generally speaking, a joint frame will attach a link to its parent and a static frame will offset the next link.
// A SimpleModel is never mutated after construction and is safe to share between goroutines.
type SimpleModel struct {
	name string
	// ordTransforms is the list of transforms ordered from base to end effector
	ordTransforms []Frame
	frameIdx      map[string]int
	limits        []Limit
	jointNames    []string
}

var _ kinematics.ForwardKinematics = (*SimpleModel)(nil)

// NewSerialModel builds a model from frames ordered from the base outwards. Frame names must be unique
// and must not use the reserved name World.
func NewSerialModel(name string, frames []Frame) (*SimpleModel, error) {
	m := &SimpleModel{
		name:          name,
		ordTransforms: frames,
		frameIdx:      make(map[string]int, len(frames)),
	}
	for i, f := range frames {
		if f.Name() == World {
			return nil, NewReservedWordError("frame", World)
		}
		if _, ok := m.frameIdx[f.Name()]; ok {
			return nil, NewDuplicateFrameNameError(f.Name())
		}
		m.frameIdx[f.Name()] = i
		dof := f.DoF()
		m.limits = append(m.limits, dof...)
		for range dof {
			m.jointNames = append(m.jointNames, f.Name())
		}
	}
	return m, nil
}

// Name returns the name of this model.
func (m *SimpleModel) Name() string {
	return m.name
}

// DoF returns the joint limits of every degree of freedom within the model.
func (m *SimpleModel) DoF() []Limit {
	return m.limits
}

// NumJoints returns the number of joint values the model takes.
func (m *SimpleModel) NumJoints() int {
	return len(m.limits)
}

// JointNames returns the name of the frame each joint value drives.
func (m *SimpleModel) JointNames() []string {
	return m.jointNames
}

// LinkNames returns the names of every frame of the model, base first.
func (m *SimpleModel) LinkNames() []string {
	names := make([]string, 0, len(m.ordTransforms))
	for _, f := range m.ordTransforms {
		names = append(names, f.Name())
	}
	return names
}

// Transform takes a model and a list of joint values and computes the pose of the end effector.
func (m *SimpleModel) Transform(inputs []Input) (spatialmath.Pose, error) {
	poses, err := m.linkPoses(inputs)
	if err != nil {
		return nil, err
	}
	if len(poses) == 0 {
		return spatialmath.NewZeroPose(), nil
	}
	return poses[len(poses)-1], nil
}

// CalcFwdKin returns the pose of the named link relative to the model base. The base itself is World.
func (m *SimpleModel) CalcFwdKin(joints []float64, link string) (spatialmath.Pose, error) {
	idx, err := m.linkIndex(link)
	if err != nil {
		return nil, err
	}
	poses, err := m.linkPoses(FloatsToInputs(joints))
	if err != nil {
		return nil, err
	}
	if idx < 0 {
		return spatialmath.NewZeroPose(), nil
	}
	return poses[idx], nil
}

// CalcJacobian returns the 6xN geometric jacobian of the origin of the named link, expressed in the model base frame.
// Columns of joints located after the link are zero.
func (m *SimpleModel) CalcJacobian(joints []float64, link string) (*mat.Dense, error) {
	idx, err := m.linkIndex(link)
	if err != nil {
		return nil, err
	}
	poses, err := m.linkPoses(FloatsToInputs(joints))
	if err != nil {
		return nil, err
	}
	if m.NumJoints() == 0 {
		return nil, errors.Errorf("model %q has no degrees of freedom", m.name)
	}
	jac := mat.NewDense(6, m.NumJoints(), nil)
	if idx < 0 {
		return jac, nil
	}

	tip := poses[idx].Point()
	parent := spatialmath.NewZeroPose()
	col := 0
	for i := 0; i <= idx; i++ {
		switch f := m.ordTransforms[i].(type) {
		case *rotationalFrame:
			axis := spatialmath.RotateVector(parent.Orientation(), f.rotAxis)
			lin := axis.Cross(tip.Sub(parent.Point()))
			setJacobianColumn(jac, col, lin, axis)
		case *translationalFrame:
			axis := spatialmath.RotateVector(parent.Orientation(), f.transAxis)
			setJacobianColumn(jac, col, axis, r3.Vector{})
		}
		col += len(m.ordTransforms[i].DoF())
		parent = poses[i]
	}
	return jac, nil
}

// linkPoses returns the pose of every frame of the model relative to the base.
func (m *SimpleModel) linkPoses(inputs []Input) ([]spatialmath.Pose, error) {
	if err := m.validInputs(inputs); err != nil {
		return nil, err
	}
	poses := make([]spatialmath.Pose, 0, len(m.ordTransforms))
	composed := spatialmath.NewZeroPose()
	posIdx := 0
	for _, transform := range m.ordTransforms {
		dof := len(transform.DoF()) + posIdx
		pose, err := transform.Transform(inputs[posIdx:dof])
		if err != nil {
			return nil, err
		}
		posIdx = dof
		composed = spatialmath.Compose(composed, pose)
		poses = append(poses, composed)
	}
	return poses, nil
}

// linkIndex returns the position of the named frame in the chain, or -1 for World.
func (m *SimpleModel) linkIndex(link string) (int, error) {
	if link == World {
		return -1, nil
	}
	idx, ok := m.frameIdx[link]
	if !ok {
		return 0, NewFrameMissingError(link)
	}
	return idx, nil
}

func (m *SimpleModel) validInputs(inputs []Input) error {
	if len(inputs) != len(m.limits) {
		return NewIncorrectDoFError(len(inputs), len(m.limits))
	}
	return nil
}

func setJacobianColumn(jac *mat.Dense, col int, lin, ang r3.Vector) {
	jac.Set(0, col, lin.X)
	jac.Set(1, col, lin.Y)
	jac.Set(2, col, lin.Z)
	jac.Set(3, col, ang.X)
	jac.Set(4, col, ang.Y)
	jac.Set(5, col, ang.Z)
}
