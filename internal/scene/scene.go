// Package scene defines the in-memory representation shared by every codec:
// mesh geometry, the skeleton bind pose, and the animation clip. It is the
// contract both the binary and the GLTF codecs produce and consume.
//
// The geometry uses the game's left-handed Y-up coordinate system. The GLTF
// codec converts at its boundary.
package scene

import (
	"fmt"

	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// RootJointName is the required name of the joint at index 0.
const RootJointName = "root"

// MaxVertexJoints is the number of joint influence slots per vertex.
const MaxVertexJoints = 4

// NoParent marks a joint without a parent. Only the root joint carries it.
const NoParent = -1

// JointName returns the canonical name of the joint at the given index.
// Index 0 is "root"; every other joint is "bone_{index}". The names are
// authoritative for matching joints across files, not display labels.
func JointName(index int) string {
	if index == 0 {
		return RootJointName
	}
	return fmt.Sprintf("bone_%d", index)
}

// ParseJointName returns the joint index encoded in a canonical joint name,
// or -1 if the name does not follow the convention.
func ParseJointName(name string) int {
	if name == RootJointName {
		return 0
	}
	var index int
	if n, err := fmt.Sscanf(name, "bone_%d", &index); err != nil || n != 1 || index < 1 {
		return -1
	}
	if name != fmt.Sprintf("bone_%d", index) {
		return -1
	}
	return index
}

// Scene owns exactly one mesh, an optional skeleton, and an optional
// animation clip. A Scene lives for the duration of one conversion and is
// never shared across conversions.
type Scene struct {
	// Name is the stem used for output file names.
	Name string

	Mesh     *Mesh
	Skeleton *Skeleton
	Clip     *Clip
}

// Mesh is an indexed triangle list with per-vertex skinning data.
type Mesh struct {
	Vertices []Vertex
	// Indices is the triangle list; its length is a multiple of three.
	Indices []uint32
}

// Vertex is a single skinned vertex.
type Vertex struct {
	Position vec3.T
	Normal   vec3.T
	UV       vec2.T

	// Joints holds up to four influencing joint indices into the skeleton.
	// Slots with zero weight are ignored.
	Joints  [MaxVertexJoints]uint8
	Weights [MaxVertexJoints]float32
}

// Skeleton is an ordered joint list. Joint 0 is the root; every joint's
// parent index is strictly less than its own, so the hierarchy is acyclic by
// construction.
type Skeleton struct {
	Joints []Joint
}

// Joint is a node of the skeleton hierarchy with its bind-pose local
// transform. Non-root joints must have identity bind rotation.
type Joint struct {
	Name        string
	Parent      int // NoParent for the root
	Translation vec3.T
	Rotation    quaternion.T
}

// NonRootCount returns the number of joints excluding the root.
func (s *Skeleton) NonRootCount() int {
	if len(s.Joints) == 0 {
		return 0
	}
	return len(s.Joints) - 1
}

// WorldTranslations computes the world-space bind translation of every joint
// by propagating local translations down the hierarchy. It is a pure function
// of the skeleton, computed fresh per scene, never cached across conversions.
func (s *Skeleton) WorldTranslations() []vec3.T {
	world := make([]vec3.T, len(s.Joints))
	for i, joint := range s.Joints {
		world[i] = joint.Translation
		if joint.Parent != NoParent {
			// Parent < i holds by construction, so world[parent] is final.
			world[i] = vec3.Add(&world[i], &world[joint.Parent])
		}
	}
	return world
}

// Children returns, for each joint, the indices of its direct children.
func (s *Skeleton) Children() [][]int {
	children := make([][]int, len(s.Joints))
	for i, joint := range s.Joints {
		if joint.Parent != NoParent {
			children[joint.Parent] = append(children[joint.Parent], i)
		}
	}
	return children
}
