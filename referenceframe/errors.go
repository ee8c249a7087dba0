package referenceframe

import "github.com/pkg/errors"

// ErrCircularReference is returned when the parent chain of a model loops back on itself.
var ErrCircularReference = errors.New("infinite loop finding path from end effector to world")

// ErrNeedOneEndEffector is returned when a model is not a single serial chain.
var ErrNeedOneEndEffector = errors.New("need exactly one end effector")

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.New("no model information")

// NewIncorrectDoFError returns an error indicating that the length of an input slice does not match the DoF.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// NewFrameMissingError returns an error indicating that the given frame is missing from the model.
func NewFrameMissingError(frameName string) error {
	return errors.Errorf("frame with name %q not in model", frameName)
}

// NewFrameNotInListOfTransformsError returns an error indicating that a frame of
// the given name is missing from the provided list of transforms.
func NewFrameNotInListOfTransformsError(frameName string) error {
	return errors.Errorf("frame named '%s' not in the list of transforms", frameName)
}

// NewReservedWordError returns an error indicating that a reserved name was used for a frame.
func NewReservedWordError(configType, reservedWord string) error {
	return errors.Errorf("reserved word: cannot name a %s '%s'", configType, reservedWord)
}

// NewDuplicateFrameNameError returns an error indicating that two frames share a name.
func NewDuplicateFrameNameError(frameName string) error {
	return errors.Errorf("cannot have more than one frame with name %s", frameName)
}

// NewUnsupportedJointTypeError returns an error indicating that a given joint type is not supported.
func NewUnsupportedJointTypeError(jointType string) error {
	return errors.Errorf("unsupported joint type detected: %q", jointType)
}
