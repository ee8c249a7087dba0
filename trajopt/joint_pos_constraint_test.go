package trajopt

import (
	"fmt"
	"math"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/trajopt/logging"
	"go.viam.com/trajopt/optimization"
	rf "go.viam.com/trajopt/referenceframe"
	"go.viam.com/trajopt/spatialmath"
)

func TestJointPosition(t *testing.T) {
	init := []float64{0.1, 0.2, 0.3}
	jp := NewJointPosition(init, "joint_position_0")
	test.That(t, jp.Name(), test.ShouldEqual, "joint_position_0")
	test.That(t, jp.Rows(), test.ShouldEqual, 3)
	test.That(t, jp.Values(), test.ShouldResemble, init)
	for _, b := range jp.Bounds() {
		test.That(t, b, test.ShouldResemble, optimization.NoBound)
	}

	// values are copies
	init[0] = 5
	jp.Values()[1] = 5
	test.That(t, jp.Values(), test.ShouldResemble, []float64{0.1, 0.2, 0.3})

	// out of bounds values are accepted
	bounded, err := NewJointPositionWithBounds([]float64{0, 0}, []optimization.Bounds{{Lower: -1, Upper: 1}, {Lower: -1, Upper: 1}}, "bounded")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bounded.SetValues([]float64{2, -3}), test.ShouldBeNil)
	test.That(t, bounded.Values(), test.ShouldResemble, []float64{2, -3})
	test.That(t, bounded.SetValues([]float64{2}), test.ShouldNotBeNil)

	_, err = NewJointPositionWithBounds([]float64{0, 0}, []optimization.Bounds{{Lower: -1, Upper: 1}}, "mismatched")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestJointPosConstraint(t *testing.T) {
	vars := []*JointPosition{
		NewJointPosition([]float64{1, 2, 3}, "joint_position_0"),
		NewJointPosition([]float64{4, 5, 6}, "joint_position_1"),
	}
	targets := []float64{0.5, -0.5, 1.5}
	c, err := NewJointPosConstraint(targets, vars, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Name(), test.ShouldEqual, DefaultJointPosName)
	test.That(t, c.Rows(), test.ShouldEqual, 6)

	values, err := c.Values()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldResemble, []float64{1, 2, 3, 4, 5, 6})

	bounds := c.Bounds()
	test.That(t, len(bounds), test.ShouldEqual, 6)
	for i, b := range bounds {
		test.That(t, b.Lower, test.ShouldEqual, targets[i%3])
		test.That(t, b.Upper, test.ShouldEqual, targets[i%3])
	}

	jac := optimization.NewJacobian(6, 3)
	test.That(t, c.FillJacobianBlock("joint_position_1", jac), test.ShouldBeNil)
	test.That(t, mat.Equal(jac, mat.NewDense(6, 3, []float64{
		0, 0, 0,
		0, 0, 0,
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})), test.ShouldBeTrue)

	other := optimization.NewJacobian(6, 3)
	other.Set(0, 0, 9)
	test.That(t, c.FillJacobianBlock("joint_position_7", other), test.ShouldBeNil)
	test.That(t, other.NonZeros(), test.ShouldEqual, 1)
	test.That(t, other.At(0, 0), test.ShouldEqual, 9.)

	test.That(t, vars[0].SetValues([]float64{7, 8, 9}), test.ShouldBeNil)
	values, err = c.Values()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values[:3], test.ShouldResemble, []float64{7, 8, 9})
}

func TestJointPosConstraintWithBounds(t *testing.T) {
	vars := []*JointPosition{NewJointPosition([]float64{0, 0}, "joint_position_0")}
	bounds := []optimization.Bounds{{Lower: -1, Upper: 1}, optimization.BoundGreaterZero}
	c, err := NewJointPosConstraintWithBounds(bounds, vars, "limits")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Name(), test.ShouldEqual, "limits")
	test.That(t, c.Bounds(), test.ShouldResemble, bounds)

	_, err = NewJointPosConstraintWithBounds(bounds[:1], vars, "")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewJointPosConstraint([]float64{0, 0}, nil, "")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewJointPosConstraint([]float64{0, 0}, []*JointPosition{
		NewJointPosition([]float64{0, 0}, "a"),
		NewJointPosition([]float64{0, 0, 0}, "b"),
	}, "")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewJointPosConstraint([]float64{0, 0}, []*JointPosition{vars[0], vars[0]}, "")
	test.That(t, err, test.ShouldNotBeNil)
}

// TestTrajectoryProblem builds a three step trajectory: the first step is pinned to a start configuration
// and the last step must reach a Cartesian goal.
func TestTrajectoryProblem(t *testing.T) {
	info := newSixDoFInfo(t)
	start := []float64{0, -0.8, 1.2, -0.4, 0.3, 0.1}
	goalJoints := []float64{0.4, -1.0, 1.0, -0.1, 0.7, -0.2}

	p := optimization.NewProblem()
	vars := make([]*JointPosition, 3)
	for i := range vars {
		init := make([]float64, 6)
		for j := range init {
			init[j] = start[j] + float64(i)*(goalJoints[j]-start[j])/2 + 0.05
		}
		limits := make([]optimization.Bounds, 6)
		for j := range limits {
			limits[j] = optimization.Bounds{Lower: -2 * math.Pi, Upper: 2 * math.Pi}
		}
		var err error
		vars[i], err = NewJointPositionWithBounds(init, limits, fmt.Sprintf("joint_position_%d", i))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, p.AddVariableSet(vars[i]), test.ShouldBeNil)
	}

	startC, err := NewJointPosConstraint(start, vars[:1], "start")
	test.That(t, err, test.ShouldBeNil)
	p.AddConstraintSet(startC)

	goalC, err := NewCartPosConstraint(nil, info, vars[2], "goal")
	test.That(t, err, test.ShouldBeNil)
	goal, err := goalC.worldPose(goalJoints)
	test.That(t, err, test.ShouldBeNil)
	goalC.SetTargetPose(goal)
	p.AddConstraintSet(goalC)

	test.That(t, p.NumVariables(), test.ShouldEqual, 18)
	test.That(t, p.NumConstraints(), test.ShouldEqual, 12)

	jac, err := p.ConstraintJacobian()
	test.That(t, err, test.ShouldBeNil)
	// the start constraint only touches the first step, the goal only the last
	for r := 0; r < 12; r++ {
		for c := 0; c < 18; c++ {
			if (r < 6 && c >= 6) || (r >= 6 && c < 12) {
				test.That(t, jac.At(r, c), test.ShouldEqual, 0.)
			}
		}
	}
	for j := 0; j < 6; j++ {
		test.That(t, jac.At(j, j), test.ShouldEqual, 1.)
	}

	report, err := optimization.CheckDerivatives(p, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Ok(rotationTolerance), test.ShouldBeTrue)

	// moving the last step onto the goal configuration zeroes the goal residual
	x := p.Variables()
	copy(x[12:], goalJoints)
	test.That(t, p.SetVariables(x), test.ShouldBeNil)
	values, err := p.ConstraintValues()
	test.That(t, err, test.ShouldBeNil)
	for _, v := range values[6:] {
		test.That(t, v, test.ShouldAlmostEqual, 0, 1e-9)
	}
	current, err := goalC.CurrentPose()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(current, goal), test.ShouldBeTrue)
}

func TestSharedKinematicInfo(t *testing.T) {
	m, err := rf.ParseModelJSONFile("testdata/sixdof.json", "")
	test.That(t, err, test.ShouldBeNil)
	am, err := rf.NewAdjacencyMap(m)
	test.That(t, err, test.ShouldBeNil)
	info, err := NewCartPosKinematicInfo(m, am, nil, "ee_link", nil, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	// constraints bound to the same info read only their own variable set
	a, err := NewCartPosConstraint(nil, info, NewJointPosition(make([]float64, 6), "a"), "")
	test.That(t, err, test.ShouldBeNil)
	b, err := NewCartPosConstraint(nil, info, NewJointPosition([]float64{1, 0, 0, 0, 0, 0}, "b"), "")
	test.That(t, err, test.ShouldBeNil)
	va, err := a.Values()
	test.That(t, err, test.ShouldBeNil)
	vb, err := b.Values()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, va, test.ShouldNotResemble, vb)
}
