package kinematics

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/trajopt/spatialmath"
)

// ChangeBase rotates both the linear and angular rows of a geometric jacobian by the orientation of change,
// re-expressing the jacobian in the frame change is expressed in. The translation of change is ignored since
// velocities are free vectors.
func ChangeBase(jac *mat.Dense, change spatialmath.Pose) {
	checkJacobianRows(jac)
	_, cols := jac.Dims()
	if cols == 0 {
		return
	}
	rot := change.Orientation().RotationMatrix().Dense()
	for _, start := range []int{0, 3} {
		block := jac.Slice(start, start+3, 0, cols).(*mat.Dense)
		var rotated mat.Dense
		rotated.Mul(rot, block)
		block.Copy(&rotated)
	}
}

// ChangeRefPoint moves the reference point of a geometric jacobian. refPoint is the vector from the current
// reference point to the new one, expressed in the jacobian's base frame. Linear velocity at the new point
// is v + w x refPoint; the angular rows are unchanged.
func ChangeRefPoint(jac *mat.Dense, refPoint r3.Vector) {
	checkJacobianRows(jac)
	_, cols := jac.Dims()
	for c := 0; c < cols; c++ {
		w := r3.Vector{X: jac.At(3, c), Y: jac.At(4, c), Z: jac.At(5, c)}
		shift := w.Cross(refPoint)
		jac.Set(0, c, jac.At(0, c)+shift.X)
		jac.Set(1, c, jac.At(1, c)+shift.Y)
		jac.Set(2, c, jac.At(2, c)+shift.Z)
	}
}

func checkJacobianRows(jac *mat.Dense) {
	if rows, _ := jac.Dims(); rows != 6 {
		panic(fmt.Sprintf("kinematics: geometric jacobian must have 6 rows, has %d", rows))
	}
}
