// Package kinematics defines the capabilities constraints need from a kinematic model (forward kinematics,
// geometric jacobians and link resolution) along with helpers for moving jacobians between frames.
package kinematics

import (
	"gonum.org/v1/gonum/mat"

	"go.viam.com/trajopt/spatialmath"
)

// ForwardKinematics computes poses and geometric jacobians of the links of a kinematic chain.
// Implementations must be safe for concurrent reads; they are shared by many constraints.
type ForwardKinematics interface {
	// Name returns the name of the kinematic chain.
	Name() string

	// NumJoints returns the number of joint values the chain takes.
	NumJoints() int

	// JointNames returns the names of the joints, ordered as the joint values are.
	JointNames() []string

	// CalcFwdKin returns the pose of the named link with respect to the base of the chain.
	CalcFwdKin(joints []float64, link string) (spatialmath.Pose, error)

	// CalcJacobian returns the 6xNumJoints geometric jacobian of the named link's origin, expressed in the base
	// frame of the chain. The first three rows are linear velocity, the last three angular velocity.
	CalcJacobian(joints []float64, link string) (*mat.Dense, error)
}

// AdjacencyMapPair is a kinematic link along with the fixed transform from that link to a rigidly attached link.
type AdjacencyMapPair struct {
	LinkName  string
	Transform spatialmath.Pose
}

// AdjacencyMap maps any link of a scene onto the kinematic link it is rigidly attached to.
type AdjacencyMap interface {
	// LinkMapping returns the kinematic link the named link moves with. The second return is false
	// if the link is not part of the map.
	LinkMapping(name string) (*AdjacencyMapPair, bool)

	// ActiveLinkNames returns the links whose pose depends on the joint values.
	ActiveLinkNames() []string
}
