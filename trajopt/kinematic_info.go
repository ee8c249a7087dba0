package trajopt

import (
	"github.com/pkg/errors"

	"go.viam.com/trajopt/kinematics"
	"go.viam.com/trajopt/logging"
	"go.viam.com/trajopt/spatialmath"
)

// CartPosKinematicInfo binds a kinematic chain to the link, base placement and tool center point a
// Cartesian pose constraint works on. It is immutable and may be shared by any number of constraints.
type CartPosKinematicInfo struct {
	manip       kinematics.ForwardKinematics
	adjacency   kinematics.AdjacencyMap
	worldToBase spatialmath.Pose
	link        string
	kinLink     *kinematics.AdjacencyMapPair
	tcp         spatialmath.Pose
}

// NewCartPosKinematicInfo resolves link through adjacency. A nil worldToBase or tcp is the identity, a nil
// logger is the global logger.
func NewCartPosKinematicInfo(
	manip kinematics.ForwardKinematics,
	adjacency kinematics.AdjacencyMap,
	worldToBase spatialmath.Pose,
	link string,
	tcp spatialmath.Pose,
	logger logging.Logger,
) (*CartPosKinematicInfo, error) {
	if manip == nil || adjacency == nil {
		return nil, errors.New("kinematics and adjacency map are required")
	}
	kinLink, ok := adjacency.LinkMapping(link)
	if !ok || kinLink == nil {
		if logger == nil {
			logger = logging.Global()
		}
		logger.Errorf("Link name %q provided does not exist.", link)
		return nil, errors.Wrapf(ErrLinkNotFound, "%q", link)
	}
	if worldToBase == nil {
		worldToBase = spatialmath.NewZeroPose()
	}
	if tcp == nil {
		tcp = spatialmath.NewZeroPose()
	}
	offset := kinLink.Transform
	if offset == nil {
		offset = spatialmath.NewZeroPose()
	}
	return &CartPosKinematicInfo{
		manip:       manip,
		adjacency:   adjacency,
		worldToBase: worldToBase,
		link:        link,
		kinLink:     &kinematics.AdjacencyMapPair{LinkName: kinLink.LinkName, Transform: offset},
		tcp:         tcp,
	}, nil
}

// Manip returns the kinematic chain.
func (info *CartPosKinematicInfo) Manip() kinematics.ForwardKinematics {
	return info.manip
}

// Adjacency returns the adjacency map the link was resolved with.
func (info *CartPosKinematicInfo) Adjacency() kinematics.AdjacencyMap {
	return info.adjacency
}

// WorldToBase returns the placement of the chain's base in the world.
func (info *CartPosKinematicInfo) WorldToBase() spatialmath.Pose {
	return info.worldToBase
}

// Link returns the name of the constrained link.
func (info *CartPosKinematicInfo) Link() string {
	return info.link
}

// KinLink returns the kinematic link the constrained link moves with and the offset between them.
func (info *CartPosKinematicInfo) KinLink() kinematics.AdjacencyMapPair {
	return *info.kinLink
}

// TCP returns the tool center point relative to the constrained link.
func (info *CartPosKinematicInfo) TCP() spatialmath.Pose {
	return info.tcp
}

// tipOffset is the tool center point relative to the kinematic link.
func (info *CartPosKinematicInfo) tipOffset() spatialmath.Pose {
	return spatialmath.Compose(info.kinLink.Transform, info.tcp)
}
