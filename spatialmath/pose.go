// Package spatialmath defines spatial mathematical operations.
// Poses represent a position in 3D space as a combination of a translation and an orientation.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Epsilon is the default tolerance used when comparing poses and vectors.
const Epsilon = 1e-8

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) and Orientation() returns the rotation.
// A Pose is immutable once constructed.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	q := newDualQuaternion()
	q.Real = Normalize(o.Quaternion())
	q.setTranslation(p)
	return q
}

// NewPoseFromOrientation returns a pose with no translation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// NewPoseFromPoint returns a pose with no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	q := newDualQuaternion()
	q.setTranslation(point)
	return q
}

// Compose takes two poses and returns a pose that is the composition of the two of them: a * b.
// The result is b expressed in the frame that a is expressed in.
func Compose(a, b Pose) Pose {
	return &dualQuaternion{dualquat.Mul(dualQuaternionFromPose(a).Number, dualQuaternionFromPose(b).Number)}
}

// PoseInverse returns the inverse of a pose, such that Compose(p, PoseInverse(p)) is the zero pose.
func PoseInverse(p Pose) Pose {
	return &dualQuaternion{dualquat.ConjQuat(dualQuaternionFromPose(p).Number)}
}

// PoseBetween returns the difference between two poses, i.e. the pose that when composed with a yields b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseDelta returns the difference between two poses as a 6-vector, translation first, followed by the
// angle axis rotational error of the relative orientation. Both parts are expressed in the frame of a.
func PoseDelta(a, b Pose) []float64 {
	between := PoseBetween(a, b)
	pt := between.Point()
	rot := CalcRotationalError(between.Orientation())
	return []float64{pt.X, pt.Y, pt.Z, rot.X, rot.Y, rot.Z}
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, Epsilon)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same, to within epsilon.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), epsilon)
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}

// RotateVector rotates v by the given orientation.
func RotateVector(o Orientation, v r3.Vector) r3.Vector {
	q := o.Quaternion()
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}
