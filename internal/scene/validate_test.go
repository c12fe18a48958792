package scene

import (
	"testing"

	"github.com/flywave/go3d/quaternion"
	"github.com/stretchr/testify/assert"

	"github.com/gbrlfaria/chaseconv/internal/errors"
)

func validScene() *Scene {
	return &Scene{
		Name: "hero",
		Skeleton: &Skeleton{Joints: []Joint{
			{Name: "root", Parent: NoParent, Rotation: quaternion.Ident},
			{Name: "bone_1", Parent: 0, Rotation: quaternion.Ident},
			{Name: "bone_2", Parent: 1, Rotation: quaternion.Ident},
		}},
		Mesh: &Mesh{
			Vertices: []Vertex{
				{Joints: [4]uint8{0}, Weights: [4]float32{1}},
				{Joints: [4]uint8{1}, Weights: [4]float32{1}},
				{Joints: [4]uint8{2}, Weights: [4]float32{1}},
			},
			Indices: []uint32{0, 1, 2},
		},
		Clip: &Clip{
			Rotations: []RotationTrack{{Joint: 1}, {Joint: 2}},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scene)
		ok     bool
	}{
		{"valid", func(*Scene) {}, true},
		{"no skeleton no clip", func(sc *Scene) {
			sc.Skeleton = nil
			sc.Clip = nil
			sc.Mesh.Vertices[0].Weights = [4]float32{}
			sc.Mesh.Vertices[1].Weights = [4]float32{}
			sc.Mesh.Vertices[2].Weights = [4]float32{}
		}, true},
		{"no mesh", func(sc *Scene) { sc.Mesh = nil }, false},
		{"partial triangle", func(sc *Scene) { sc.Mesh.Indices = []uint32{0, 1} }, false},
		{"index out of range", func(sc *Scene) { sc.Mesh.Indices = []uint32{0, 1, 9} }, false},
		{"bad joint name", func(sc *Scene) { sc.Skeleton.Joints[1].Name = "Bone.001" }, false},
		{"root with parent", func(sc *Scene) { sc.Skeleton.Joints[0].Parent = 1 }, false},
		{"parentless joint", func(sc *Scene) { sc.Skeleton.Joints[2].Parent = NoParent }, false},
		{"parent after child", func(sc *Scene) { sc.Skeleton.Joints[1].Parent = 2 }, false},
		{"bind rotation", func(sc *Scene) {
			sc.Skeleton.Joints[1].Rotation = quaternion.T{0, 1, 0, 0}
		}, false},
		{"rotated root is fine", func(sc *Scene) {
			sc.Skeleton.Joints[0].Rotation = quaternion.T{0, 1, 0, 0}
		}, true},
		{"vertex joint out of range", func(sc *Scene) { sc.Mesh.Vertices[0].Joints[0] = 9 }, false},
		{"skinned vertex without skeleton", func(sc *Scene) {
			sc.Skeleton = nil
			sc.Clip = nil
		}, false},
		{"root rotation track", func(sc *Scene) { sc.Clip.Rotations[0].Joint = 0 }, false},
		{"unordered tracks", func(sc *Scene) {
			sc.Clip.Rotations[0].Joint = 2
			sc.Clip.Rotations[1].Joint = 1
		}, false},
		{"duplicate track target", func(sc *Scene) { sc.Clip.Rotations[1].Joint = 1 }, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sc := validScene()
			test.mutate(sc)
			err := sc.Validate()
			if test.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errors.ErrStructural)
			}
		})
	}
}

func TestIsIdentityRotation(t *testing.T) {
	assert.True(t, IsIdentityRotation(quaternion.Ident))
	assert.True(t, IsIdentityRotation(quaternion.T{0, 0, 0, -1}))
	assert.True(t, IsIdentityRotation(quaternion.T{1e-6, -1e-6, 0, 1}))
	assert.False(t, IsIdentityRotation(quaternion.T{0, 1, 0, 0}))
	assert.False(t, IsIdentityRotation(quaternion.T{0, 1e-3, 0, 1}))
}
