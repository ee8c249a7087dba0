package config

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/trajopt/logging"
	"go.viam.com/trajopt/optimization"
)

func TestRead(t *testing.T) {
	cfg, err := Read("testdata/problem.json")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ModelPath(), test.ShouldEqual, "testdata/planar.json")
	test.That(t, len(cfg.Timesteps), test.ShouldEqual, 3)
	test.That(t, len(cfg.Cartesian), test.ShouldEqual, 1)
	test.That(t, cfg.Cartesian[0].Link, test.ShouldEqual, "pen")
	test.That(t, len(cfg.Joint), test.ShouldEqual, 2)

	_, err = Read("testdata/missing.json")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = FromJSON([]byte(`{"model_file": `))
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to unmarshal problem config")
}

func TestValidateReportsEveryProblem(t *testing.T) {
	_, err := Read("testdata/invalid.json")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(errors.Cause(err))), test.ShouldEqual, 8)
	for _, msg := range []string{
		"model_file",
		"problem.timesteps.1",
		"link",
		"target",
		"timestep 4 out of range",
		"bounds must have 6 entries",
		"exactly one of targets or bounds",
		"problem.joint.0",
	} {
		test.That(t, err.Error(), test.ShouldContainSubstring, msg)
	}
}

func TestBuild(t *testing.T) {
	cfg, err := Read("testdata/problem.json")
	test.That(t, err, test.ShouldBeNil)
	logger, logs := logging.NewObservedTestLogger(t)
	p, err := cfg.Build(logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("built problem").Len(), test.ShouldEqual, 1)

	test.That(t, p.NumVariables(), test.ShouldEqual, 6)
	test.That(t, p.NumConstraints(), test.ShouldEqual, 12)
	test.That(t, p.Variables(), test.ShouldResemble, []float64{0, 0, 0.2, 0.3, 0.4, 0.6})

	varBounds := p.VariableBounds()
	test.That(t, varBounds[0].Lower, test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, varBounds[5].Upper, test.ShouldAlmostEqual, 5*math.Pi/6)

	names := []string{}
	for _, cs := range p.ConstraintSets() {
		names = append(names, cs.Name())
	}
	test.That(t, names, test.ShouldResemble, []string{"reach", "start", "elbow"})

	bounds := p.ConstraintBounds()
	test.That(t, bounds[0], test.ShouldResemble, optimization.Bounds{Lower: -0.01, Upper: 0.01})
	test.That(t, bounds[2], test.ShouldResemble, optimization.NoBound)
	test.That(t, bounds[5], test.ShouldResemble, optimization.Bounds{Lower: -0.1, Upper: 0.1})
	test.That(t, bounds[6], test.ShouldResemble, optimization.BoundZero)
	test.That(t, bounds[9], test.ShouldResemble, optimization.BoundGreaterZero)

	report, err := optimization.CheckDerivatives(p, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, report.Ok(1e-4), test.ShouldBeTrue)

	jac, err := p.ConstraintJacobian()
	test.That(t, err, test.ShouldBeNil)
	// the cartesian constraint only depends on the last timestep
	for r := 0; r < 6; r++ {
		for c := 0; c < 4; c++ {
			test.That(t, jac.At(r, c), test.ShouldEqual, 0.)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	cfg, err := Read("testdata/problem.json")
	test.That(t, err, test.ShouldBeNil)

	cfg.Timesteps = [][]float64{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}
	_, err = cfg.Build(logging.NewTestLogger(t))
	test.That(t, err.Error(), test.ShouldContainSubstring, "has 2 joints")

	cfg, err = Read("testdata/problem.json")
	test.That(t, err, test.ShouldBeNil)
	cfg.Cartesian[0].Link = "brush"
	_, err = cfg.Build(logging.NewTestLogger(t))
	test.That(t, err.Error(), test.ShouldContainSubstring, "cartesian constraint 0")

	cfg, err = Read("testdata/problem.json")
	test.That(t, err, test.ShouldBeNil)
	cfg.ModelFile = "nothing.json"
	_, err = cfg.Build(logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)

	cfg, err = Read("testdata/problem.json")
	test.That(t, err, test.ShouldBeNil)
	cfg.Joint[1].Timesteps = []int{7}
	_, err = cfg.Build(logging.NewTestLogger(t))
	test.That(t, err.Error(), test.ShouldContainSubstring, "timestep 7 out of range")
}
