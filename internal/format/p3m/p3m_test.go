package p3m

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbrlfaria/chaseconv/internal/errors"
)

func TestUnmarshal(t *testing.T) {
	f, err := Unmarshal(goldenBytes)
	require.NoError(t, err)
	assert.Equal(t, goldenFile(), f)
}

func TestMarshal(t *testing.T) {
	data, err := goldenFile().Marshal()
	require.NoError(t, err)
	assert.Equal(t, goldenBytes, data)
}

func TestRoundTrip(t *testing.T) {
	f, err := Unmarshal(goldenBytes)
	require.NoError(t, err)

	data, err := f.Marshal()
	require.NoError(t, err)
	assert.Equal(t, goldenBytes, data)
}

func TestUnmarshalTruncated(t *testing.T) {
	for _, size := range []int{0, 10, 27, 29, 60, 150, 450, len(goldenBytes) - 1} {
		_, err := Unmarshal(goldenBytes[:size])
		assert.ErrorIs(t, err, errors.ErrParse, "prefix of %d bytes", size)
	}
}

func TestUnmarshalBadSignature(t *testing.T) {
	data := append([]byte{}, goldenBytes...)
	data[0] = 'X'

	_, err := Unmarshal(data)
	assert.ErrorIs(t, err, errors.ErrParse)
}

func TestMarshalMismatchedVertexBlocks(t *testing.T) {
	f := goldenFile()
	f.MeshVertices = f.MeshVertices[:2]

	_, err := f.Marshal()
	assert.ErrorIs(t, err, errors.ErrEncode)
}

func TestMarshalTooManyChildren(t *testing.T) {
	f := goldenFile()
	f.PositionBones[0].Children = make([]uint8, maxBoneChildren+1)

	_, err := f.Marshal()
	assert.ErrorIs(t, err, errors.ErrEncode)
}

func goldenFile() *File {
	return &File{
		VersionHeader: "Perfact 3D Model (Ver 0.5)",
		PositionBones: []PositionBone{
			{Position: [3]float32{0, 0, 0}, Children: []uint8{0}},
			{Position: [3]float32{1, 0, 0}, Children: []uint8{1}},
		},
		AngleBones: []AngleBone{
			{Children: []uint8{1}},
			{},
		},
		Faces: [][3]uint16{{0, 1, 2}},
		SkinVertices: []SkinVertex{
			{Position: [3]float32{1, 0, 0}, Weight: 1, BoneIndex: 0, Normal: [3]float32{1, 0, 0}, UV: [2]float32{0, 0}},
			{Position: [3]float32{0, 1, 0}, Weight: 1, BoneIndex: 0, Normal: [3]float32{1, 0, 0}, UV: [2]float32{0.5, 0.5}},
			{Position: [3]float32{1, 0, 1}, Weight: 1, BoneIndex: 1, Normal: [3]float32{1, 0, 0}, UV: [2]float32{1, 1}},
		},
		MeshVertices: []MeshVertex{
			{Position: [3]float32{1, 0, 0}, Normal: [3]float32{1, 0, 0}, UV: [2]float32{0, 0}},
			{Position: [3]float32{0, 1, 0}, Normal: [3]float32{1, 0, 0}, UV: [2]float32{0.5, 0.5}},
			{Position: [3]float32{0, 0, 1}, Normal: [3]float32{1, 0, 0}, UV: [2]float32{1, 1}},
		},
	}
}

// goldenBytes is a hand-assembled minimal model file: two bones, one
// triangle.
var goldenBytes = []byte{
	0x50, 0x65, 0x72, 0x66, 0x61, 0x63, 0x74, 0x20, 0x33, 0x44, 0x20, 0x4d, 0x6f, 0x64,
	0x65, 0x6c, 0x20, 0x28, 0x56, 0x65, 0x72, 0x20, 0x30, 0x2e, 0x35, 0x29, 0x00, 0x02,
	0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x80,
	0x3f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x02, 0x00, 0x00, 0x00, 0x80,
	0x3f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x3f, 0x00,
	0x00, 0xff, 0xff, 0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0xff,
	0xff, 0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x3f, 0x00, 0x00, 0x00, 0x3f, 0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x80, 0x3f, 0x01, 0x01, 0xff, 0xff, 0x00,
	0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80,
	0x3f, 0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x80, 0x3f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x3f, 0x00, 0x00, 0x00, 0x3f, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x3f, 0x00, 0x00, 0x80,
	0x3f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x3f, 0x00,
	0x00, 0x80, 0x3f,
}
