package scene

import (
	"math"

	"github.com/flywave/go3d/quaternion"

	"github.com/gbrlfaria/chaseconv/internal/errors"
)

// rotationEpsilon bounds the per-component deviation tolerated when testing a
// bind-pose rotation for identity. It absorbs float rounding from foreign
// exporters without letting a real pre-twist through.
const rotationEpsilon = 1e-5

// IsIdentityRotation reports whether q is the identity rotation within
// tolerance. Both (0,0,0,1) and its negation describe the identity.
func IsIdentityRotation(q quaternion.T) bool {
	if q[3] < 0 {
		q = quaternion.T{-q[0], -q[1], -q[2], -q[3]}
	}
	ident := quaternion.Ident
	for i := 0; i < 4; i++ {
		if math.Abs(float64(q[i]-ident[i])) > rotationEpsilon {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants of the scene: joint naming,
// hierarchy ordering, bind-pose rotation constraints, vertex joint
// references, and clip track ordering. It returns an error marked with
// errors.ErrStructural naming the offending joint, vertex, or track.
func (s *Scene) Validate() error {
	if s.Mesh == nil {
		return structural("scene has no mesh")
	}
	if len(s.Mesh.Indices)%3 != 0 {
		return structural("mesh index count %d is not a multiple of three", len(s.Mesh.Indices))
	}
	for _, index := range s.Mesh.Indices {
		if int(index) >= len(s.Mesh.Vertices) {
			return structural("triangle index %d exceeds vertex count %d", index, len(s.Mesh.Vertices))
		}
	}

	if s.Skeleton != nil {
		if err := s.Skeleton.validate(); err != nil {
			return err
		}
	}

	for i, vertex := range s.Mesh.Vertices {
		for slot := 0; slot < MaxVertexJoints; slot++ {
			if vertex.Weights[slot] == 0 {
				continue
			}
			if s.Skeleton == nil {
				return structural("vertex %d is skinned but the scene has no skeleton", i)
			}
			if int(vertex.Joints[slot]) >= len(s.Skeleton.Joints) {
				return structural("vertex %d references joint %d outside the %d-joint skeleton",
					i, vertex.Joints[slot], len(s.Skeleton.Joints))
			}
		}
	}

	if s.Clip != nil {
		prev := 0
		for _, track := range s.Clip.Rotations {
			if track.Joint < 1 {
				return structural("rotation track targets joint %d; the root joint carries no rotation channel", track.Joint)
			}
			if track.Joint <= prev {
				return structural("rotation tracks out of order at joint %d", track.Joint)
			}
			prev = track.Joint
		}
	}

	return nil
}

func (s *Skeleton) validate() error {
	for i, joint := range s.Joints {
		if want := JointName(i); joint.Name != want {
			return structural("joint %d is named %q, want %q", i, joint.Name, want)
		}
		if i == 0 {
			if joint.Parent != NoParent {
				return structural("root joint has parent %d", joint.Parent)
			}
			continue
		}
		if joint.Parent == NoParent {
			return structural("joint %d has no parent; only the root may be parentless", i)
		}
		if joint.Parent < 0 || joint.Parent >= i {
			return structural("joint %d has parent %d; parents must precede their children", i, joint.Parent)
		}
		if !IsIdentityRotation(joint.Rotation) {
			return structural("joint %d has a non-identity bind rotation", i)
		}
	}
	return nil
}

func structural(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), errors.ErrStructural)
}
