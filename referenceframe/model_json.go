package referenceframe

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	spatial "go.viam.com/trajopt/spatialmath"
)

// ModelConfigJSON represents all supported fields in a kinematics JSON file.
type ModelConfigJSON struct {
	Name         string        `json:"name"`
	KinParamType string        `json:"kinematic_param_type,omitempty"`
	Links        []LinkConfig  `json:"links,omitempty"`
	Joints       []JointConfig `json:"joints,omitempty"`
}

// LinkConfig is a static frame with a parent.
type LinkConfig struct {
	ID          string                     `json:"id"`
	Translation spatial.TranslationConfig  `json:"translation"`
	Orientation *spatial.OrientationConfig `json:"orientation,omitempty"`
	Parent      string                     `json:"parent"`
}

// JointConfig is a revolute or prismatic joint with a parent. Revolute limits are in degrees.
type JointConfig struct {
	ID     string     `json:"id"`
	Type   string     `json:"type"`
	Parent string     `json:"parent"`
	Axis   AxisConfig `json:"axis"`
	Max    float64    `json:"max"`
	Min    float64    `json:"min"`
}

// AxisConfig is the axis a joint moves along or about.
type AxisConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Joint types supported by JointConfig.
const (
	RevoluteJoint  = "revolute"
	PrismaticJoint = "prismatic"
)

// ToStaticFrame converts a LinkConfig into a staticFrame.
func (cfg *LinkConfig) ToStaticFrame() (Frame, error) {
	orient, err := cfg.Orientation.ParseConfig()
	if err != nil {
		return nil, errors.Wrapf(err, "link %q", cfg.ID)
	}
	return NewStaticFrame(cfg.ID, spatial.NewPose(cfg.Translation.ParseConfig(), orient))
}

// ToFrame converts a JointConfig into a joint frame.
func (cfg *JointConfig) ToFrame() (Frame, error) {
	axis := r3.Vector{X: cfg.Axis.X, Y: cfg.Axis.Y, Z: cfg.Axis.Z}
	switch cfg.Type {
	case RevoluteJoint:
		return NewRotationalFrame(cfg.ID, spatial.R4AA{RX: axis.X, RY: axis.Y, RZ: axis.Z},
			Limit{Min: cfg.Min * math.Pi / 180, Max: cfg.Max * math.Pi / 180})
	case PrismaticJoint:
		return NewTranslationalFrame(cfg.ID, axis, Limit{Min: cfg.Min, Max: cfg.Max})
	default:
		return nil, NewUnsupportedJointTypeError(cfg.Type)
	}
}

// UnmarshalModelJSON will parse the given JSON data into a kinematics model. modelName sets the name of the model,
// will use the name from the JSON if string is empty.
func UnmarshalModelJSON(jsonData []byte, modelName string) (*SimpleModel, error) {
	// empty data probably means that the robot component has no model information
	if len(jsonData) == 0 {
		return nil, ErrNoModelInformation
	}

	m := &ModelConfigJSON{}
	if err := json.Unmarshal(jsonData, m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return m.ParseConfig(modelName)
}

// ParseModelJSONFile will read a given file and then parse the contained JSON data.
func ParseModelJSONFile(filename, modelName string) (*SimpleModel, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, modelName)
}

// ParseConfig converts the ModelConfigJSON struct into a full Model with the name modelName.
func (cfg *ModelConfigJSON) ParseConfig(modelName string) (*SimpleModel, error) {
	if modelName == "" {
		modelName = cfg.Name
	}
	if cfg.KinParamType != "" && cfg.KinParamType != "SVA" {
		return nil, errors.Errorf("unsupported param type: %s, supported params are SVA", cfg.KinParamType)
	}

	transforms := map[string]Frame{}
	// Make a map of parents for each element for post-process, to allow items to be processed out of order
	parentMap := map[string]string{}

	var errs error
	for _, link := range cfg.Links {
		if link.ID == World {
			multierr.AppendInto(&errs, NewReservedWordError("link", World))
			continue
		}
		if _, ok := transforms[link.ID]; ok {
			multierr.AppendInto(&errs, NewDuplicateFrameNameError(link.ID))
			continue
		}
		frame, err := link.ToStaticFrame()
		if err != nil {
			multierr.AppendInto(&errs, err)
			continue
		}
		parentMap[link.ID] = link.Parent
		transforms[link.ID] = frame
	}
	for _, joint := range cfg.Joints {
		if joint.ID == World {
			multierr.AppendInto(&errs, NewReservedWordError("joint", World))
			continue
		}
		if _, ok := transforms[joint.ID]; ok {
			multierr.AppendInto(&errs, NewDuplicateFrameNameError(joint.ID))
			continue
		}
		frame, err := joint.ToFrame()
		if err != nil {
			multierr.AppendInto(&errs, err)
			continue
		}
		parentMap[joint.ID] = joint.Parent
		transforms[joint.ID] = frame
	}
	if errs != nil {
		return nil, errs
	}

	ot, err := sortTransforms(transforms, parentMap)
	if err != nil {
		return nil, err
	}
	return NewSerialModel(modelName, ot)
}

// Create an ordered list of transforms given a mapping of child to parent frames.
func sortTransforms(transforms map[string]Frame, parents map[string]string) ([]Frame, error) {
	if len(transforms) == 0 {
		return nil, ErrNoModelInformation
	}
	// find the end effector first - determine which transforms have no children
	// copy the map of children -> parents
	ees := map[string]string{}
	for child, parent := range parents {
		ees[child] = parent
	}
	// now remove all parents
	for _, parent := range parents {
		delete(ees, parent)
	}
	// ensure there is only on end effector
	if len(ees) != 1 {
		return nil, fmt.Errorf("%w, have %v", ErrNeedOneEndEffector, lo.Keys(ees))
	}

	// start the search from the end effector; the seen set guarantees the walk terminates
	curr := lo.Keys(ees)[0]
	seen := map[string]bool{curr: true}
	orderedTransforms := []Frame{}
	for {
		frame, ok := transforms[curr]
		if !ok {
			return nil, NewFrameNotInListOfTransformsError(curr)
		}
		orderedTransforms = append(orderedTransforms, frame)

		parent := parents[curr]
		if parent == World {
			break
		}
		if seen[parent] {
			return nil, ErrCircularReference
		}
		seen[parent] = true
		curr = parent
	}
	if len(orderedTransforms) != len(transforms) {
		return nil, errors.Wrapf(ErrNeedOneEndEffector, "only %d of %d frames reach %s", len(orderedTransforms), len(transforms), World)
	}

	// After the above loop, the transforms are in reverse order, so we reverse the list.
	for i, j := 0, len(orderedTransforms)-1; i < j; i, j = i+1, j-1 {
		orderedTransforms[i], orderedTransforms[j] = orderedTransforms[j], orderedTransforms[i]
	}
	return orderedTransforms, nil
}
