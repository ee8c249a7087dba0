package spatialmath

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestZeroPose(t *testing.T) {
	p := NewZeroPose()
	test.That(t, p.Point(), test.ShouldResemble, r3.Vector{})
	test.That(t, p.Orientation().Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
}

func TestPointRoundTrip(t *testing.T) {
	pt := r3.Vector{X: 1.5, Y: -2, Z: 0.25}
	p := NewPose(pt, &R4AA{Theta: 1.1, RX: 0.2, RY: -0.4, RZ: 1})
	test.That(t, R3VectorAlmostEqual(p.Point(), pt, 1e-12), test.ShouldBeTrue)
	test.That(t, p.Orientation().AxisAngles().Theta, test.ShouldAlmostEqual, 1.1)
}

func TestCompose(t *testing.T) {
	// translate along x, then rotate 90 degrees about z, then translate along the new x
	a := Compose(NewPoseFromPoint(r3.Vector{X: 1}), NewPoseFromOrientation(&R4AA{Theta: math.Pi / 2, RZ: 1}))
	b := Compose(a, NewPoseFromPoint(r3.Vector{X: 1}))
	test.That(t, R3VectorAlmostEqual(b.Point(), r3.Vector{X: 1, Y: 1}, 1e-12), test.ShouldBeTrue)
	test.That(t, b.Orientation().AxisAngles().Theta, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, b.Orientation().AxisAngles().RZ, test.ShouldAlmostEqual, 1)
}

func TestPoseInverse(t *testing.T) {
	p := NewPose(r3.Vector{X: 3, Y: -1, Z: 7}, &EulerAngles{Roll: 0.3, Pitch: -0.8, Yaw: 2.1})
	test.That(t, PoseAlmostEqual(Compose(p, PoseInverse(p)), NewZeroPose()), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Compose(PoseInverse(p), p), NewZeroPose()), test.ShouldBeTrue)

	q := NewPose(r3.Vector{X: -2, Z: 1}, &R4AA{Theta: 0.4, RX: 1})
	test.That(t, PoseAlmostEqual(Compose(p, PoseBetween(p, q)), q), test.ShouldBeTrue)
}

func TestPoseDelta(t *testing.T) {
	a := NewPoseFromPoint(r3.Vector{X: 1})
	b := NewPose(r3.Vector{X: 1, Y: 2}, &R4AA{Theta: 0.5, RZ: 1})
	delta := PoseDelta(a, b)
	test.That(t, len(delta), test.ShouldEqual, 6)
	test.That(t, delta[0], test.ShouldAlmostEqual, 0)
	test.That(t, delta[1], test.ShouldAlmostEqual, 2)
	test.That(t, delta[5], test.ShouldAlmostEqual, 0.5)
}

func TestRotateVector(t *testing.T) {
	v := RotateVector(&R4AA{Theta: math.Pi / 2, RZ: 1}, r3.Vector{X: 1})
	test.That(t, R3VectorAlmostEqual(v, r3.Vector{Y: 1}, 1e-12), test.ShouldBeTrue)
}

func TestRotationMatrixRoundTrip(t *testing.T) {
	for _, o := range []Orientation{
		&R4AA{Theta: 0.7, RX: 1, RY: 1},
		&R4AA{Theta: 3.1, RX: 0.1, RZ: -1},
		&EulerAngles{Roll: 1, Pitch: 0.2, Yaw: -2.5},
		NewZeroOrientation(),
	} {
		rm := o.RotationMatrix()
		test.That(t, QuaternionAlmostEqual(rm.Quaternion(), Normalize(o.Quaternion()), 1e-9), test.ShouldBeTrue)
		v := r3.Vector{X: 0.3, Y: -1, Z: 2}
		test.That(t, R3VectorAlmostEqual(rm.Mul(v), RotateVector(o, v), 1e-9), test.ShouldBeTrue)
	}
	_, err := NewRotationMatrix([]float64{1, 2})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEulerAnglesRoundTrip(t *testing.T) {
	ea := &EulerAngles{Roll: 0.4, Pitch: -0.3, Yaw: 1.2}
	back := QuatToEulerAngles(ea.Quaternion())
	test.That(t, back.Roll, test.ShouldAlmostEqual, ea.Roll)
	test.That(t, back.Pitch, test.ShouldAlmostEqual, ea.Pitch)
	test.That(t, back.Yaw, test.ShouldAlmostEqual, ea.Yaw)
}

func TestPoseConfig(t *testing.T) {
	raw := []byte(`{"translation": {"x": 1, "y": 2, "z": 3},
		"orientation": {"type": "axis_angles", "value": {"th": 1.5707963267948966, "x": 0, "y": 0, "z": 1}}}`)
	var cfg PoseConfig
	test.That(t, json.Unmarshal(raw, &cfg), test.ShouldBeNil)
	p, err := cfg.Pose()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, R3VectorAlmostEqual(p.Point(), r3.Vector{X: 1, Y: 2, Z: 3}, 1e-12), test.ShouldBeTrue)
	test.That(t, p.Orientation().AxisAngles().Theta, test.ShouldAlmostEqual, math.Pi/2)

	back, err := NewPoseConfig(p)
	test.That(t, err, test.ShouldBeNil)
	p2, err := back.Pose()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, PoseAlmostEqual(p, p2), test.ShouldBeTrue)

	bad := &OrientationConfig{Type: "ov_radians"}
	_, err = bad.ParseConfig()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not supported")

	var nilCfg *PoseConfig
	p, err = nilCfg.Pose()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, PoseAlmostEqual(p, NewZeroPose()), test.ShouldBeTrue)
}
