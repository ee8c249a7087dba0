package spatialmath

import (
	"encoding/json"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// OrientationType defines what orientation representations are known.
type OrientationType string

// The set of allowed representations for orientation.
const (
	NoOrientation   = OrientationType("")
	AxisAngles      = OrientationType("axis_angles")
	EulerAnglesType = OrientationType("euler_angles")
	QuaternionType  = OrientationType("quaternion")
)

// TranslationConfig is the config for a translation.
type TranslationConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewTranslationConfig constructs a config from a r3.Vector.
func NewTranslationConfig(pt r3.Vector) *TranslationConfig {
	return &TranslationConfig{X: pt.X, Y: pt.Y, Z: pt.Z}
}

// ParseConfig converts a TranslationConfig into a r3.Vector.
func (cfg *TranslationConfig) ParseConfig() r3.Vector {
	return r3.Vector{X: cfg.X, Y: cfg.Y, Z: cfg.Z}
}

// OrientationConfig holds the underlying type of orientation, and the value.
type OrientationConfig struct {
	Type  OrientationType `json:"type"`
	Value json.RawMessage `json:"value"`
}

type quaternionJSON struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NewOrientationConfig encodes the orientation interface to something serializable and human readable.
// Orientations are always written as quaternions.
func NewOrientationConfig(o Orientation) (*OrientationConfig, error) {
	q := o.Quaternion()
	bytes, err := json.Marshal(quaternionJSON{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag})
	if err != nil {
		return nil, err
	}
	return &OrientationConfig{Type: QuaternionType, Value: json.RawMessage(bytes)}, nil
}

// ParseConfig will use the Type in OrientationConfig and convert into the correct struct that implements Orientation.
func (config *OrientationConfig) ParseConfig() (Orientation, error) {
	if config == nil {
		return NewZeroOrientation(), nil
	}
	switch config.Type {
	case NoOrientation:
		return NewZeroOrientation(), nil
	case AxisAngles:
		var aa R4AA
		if err := json.Unmarshal(config.Value, &aa); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal axis angles")
		}
		return &aa, nil
	case EulerAnglesType:
		var ea EulerAngles
		if err := json.Unmarshal(config.Value, &ea); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal euler angles")
		}
		return &ea, nil
	case QuaternionType:
		var q quaternionJSON
		if err := json.Unmarshal(config.Value, &q); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal quaternion")
		}
		return NewQuaternion(quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}), nil
	default:
		return nil, newOrientationTypeUnsupportedError(string(config.Type))
	}
}

// PoseConfig is the config for a pose: a translation plus an optional orientation.
type PoseConfig struct {
	Translation TranslationConfig  `json:"translation"`
	Orientation *OrientationConfig `json:"orientation,omitempty"`
}

// NewPoseConfig constructs a config from a Pose.
func NewPoseConfig(p Pose) (*PoseConfig, error) {
	o, err := NewOrientationConfig(p.Orientation())
	if err != nil {
		return nil, err
	}
	return &PoseConfig{Translation: *NewTranslationConfig(p.Point()), Orientation: o}, nil
}

// Pose converts the config into a Pose.
func (cfg *PoseConfig) Pose() (Pose, error) {
	if cfg == nil {
		return NewZeroPose(), nil
	}
	o, err := cfg.Orientation.ParseConfig()
	if err != nil {
		return nil, err
	}
	return NewPose(cfg.Translation.ParseConfig(), o), nil
}

func newOrientationTypeUnsupportedError(orientationType string) error {
	return errors.Errorf("orientation type %q not supported", orientationType)
}
