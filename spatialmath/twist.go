package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// CalcRotationalError returns the angle axis (rotation vector) logarithm of the given orientation: a vector
// whose direction is the rotation axis and whose magnitude is the rotation angle in radians.
// The zero rotation maps to the zero vector and the map is continuous around it.
//
// The angle is kept within [-pi, pi]. A rotation of exactly pi is a singularity of this map: q and -q
// describe the same rotation but yield opposite vectors, so the result may jump sign across it.
// Callers linearizing around such a rotation should expect large errors.
func CalcRotationalError(o Orientation) r3.Vector {
	q := Normalize(o.Quaternion())
	v := r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
	n := v.Norm()
	if n < 1e-12 {
		// first order expansion of 2*atan2(n, |w|)/n around n = 0
		if q.Real < 0 {
			return v.Mul(-2)
		}
		return v.Mul(2)
	}
	angle := 2 * math.Atan2(n, math.Abs(q.Real))
	if q.Real < 0 {
		angle = -angle
	}
	return v.Mul(angle / n)
}

// AddTwist moves a pose by a twist held for dt. The linear part is added to the translation and the
// angular part rotates the pose about the axes of the frame the pose is expressed in.
func AddTwist(p Pose, linear, angular r3.Vector, dt float64) Pose {
	rot := p.Orientation().Quaternion()
	if aa := angular.Mul(dt); aa.Norm() > 1e-12 {
		rot = quat.Mul(R3ToR4(aa).ToQuat(), rot)
	}
	return NewPose(p.Point().Add(linear.Mul(dt)), NewQuaternion(rot))
}

// TwistFromSlice splits a 6 element twist, linear first, into its linear and angular parts.
func TwistFromSlice(twist []float64) (linear, angular r3.Vector) {
	return r3.Vector{X: twist[0], Y: twist[1], Z: twist[2]}, r3.Vector{X: twist[3], Y: twist[4], Z: twist[5]}
}
