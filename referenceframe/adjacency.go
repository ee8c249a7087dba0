package referenceframe

import (
	"github.com/pkg/errors"

	"go.viam.com/trajopt/kinematics"
	"go.viam.com/trajopt/spatialmath"
)

// Attachment is a scene link rigidly fixed to another link, e.g. a tool or a camera mounted on an arm.
type Attachment struct {
	Name   string
	Parent string
	Offset spatialmath.Pose
}

// AdjacencyMap resolves every link of a model, and anything rigidly attached to it, onto the nearest link
// whose pose is driven by a joint. Links upstream of every joint resolve onto World.
type AdjacencyMap struct {
	mapping     map[string]*kinematics.AdjacencyMapPair
	activeLinks []string
}

var _ kinematics.AdjacencyMap = (*AdjacencyMap)(nil)

// NewAdjacencyMap builds the adjacency map of a model. Attachments are resolved in order, so an attachment
// may be parented to a model link or to an earlier attachment.
func NewAdjacencyMap(m *SimpleModel, attachments ...Attachment) (*AdjacencyMap, error) {
	am := &AdjacencyMap{mapping: map[string]*kinematics.AdjacencyMapPair{
		World: {LinkName: World, Transform: spatialmath.NewZeroPose()},
	}}

	kinLink := World
	offset := spatialmath.NewZeroPose()
	for _, f := range m.ordTransforms {
		if len(f.DoF()) > 0 {
			kinLink = f.Name()
			offset = spatialmath.NewZeroPose()
		} else {
			pose, err := f.Transform(nil)
			if err != nil {
				return nil, err
			}
			offset = spatialmath.Compose(offset, pose)
		}
		if kinLink != World {
			am.activeLinks = append(am.activeLinks, f.Name())
		}
		am.mapping[f.Name()] = &kinematics.AdjacencyMapPair{LinkName: kinLink, Transform: offset}
	}

	for _, a := range attachments {
		if _, ok := am.mapping[a.Name]; ok {
			return nil, NewDuplicateFrameNameError(a.Name)
		}
		parent, ok := am.mapping[a.Parent]
		if !ok {
			return nil, errors.Wrapf(NewFrameMissingError(a.Parent), "cannot attach %q", a.Name)
		}
		attachOffset := a.Offset
		if attachOffset == nil {
			attachOffset = spatialmath.NewZeroPose()
		}
		am.mapping[a.Name] = &kinematics.AdjacencyMapPair{
			LinkName:  parent.LinkName,
			Transform: spatialmath.Compose(parent.Transform, attachOffset),
		}
		if parent.LinkName != World {
			am.activeLinks = append(am.activeLinks, a.Name)
		}
	}
	return am, nil
}

// LinkMapping returns the kinematic link the named link moves with, and the fixed transform between them.
func (am *AdjacencyMap) LinkMapping(name string) (*kinematics.AdjacencyMapPair, bool) {
	pair, ok := am.mapping[name]
	return pair, ok
}

// ActiveLinkNames returns the links whose pose depends on the joint values.
func (am *AdjacencyMap) ActiveLinkNames() []string {
	return am.activeLinks
}
