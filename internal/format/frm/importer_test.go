package frm

import (
	"math"
	"testing"

	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbrlfaria/chaseconv/internal/mathutil"
	"github.com/gbrlfaria/chaseconv/internal/scene"
)

// quarterTurnY rotates 90 degrees about the Y axis.
var quarterTurnY = quaternion.T{0, float32(math.Sqrt2) / 2, 0, float32(math.Sqrt2) / 2}

func TestImport(t *testing.T) {
	f := testFile()
	for i := range f.Frames {
		f.Frames[i].Rotations[1] = mathutil.QuatToMat4(quarterTurnY)
	}
	data, err := f.Marshal()
	require.NoError(t, err)

	sc := &scene.Scene{}
	require.NoError(t, Importer{}.Import(data, "anim/walk.frm", sc))

	clip := sc.Clip
	require.NotNil(t, clip)
	assert.Equal(t, "walk", clip.Name)
	assert.Equal(t, 3, clip.FrameCount())

	// Keys are sampled at the fixed frame rate.
	require.Len(t, clip.Root.Keys, 3)
	assert.Equal(t, float32(0), clip.Root.Keys[0].Time)
	assert.InDelta(t, 1.0/55, clip.Root.Keys[1].Time, 1e-6)
	assert.InDelta(t, 2.0/55, clip.Root.Keys[2].Time, 1e-6)

	// X and Z accumulate frame over frame, Y is absolute.
	assert.Equal(t, vec3.T{1, 2, 0}, clip.Root.Keys[0].Value)
	assert.Equal(t, vec3.T{1.5, 2.5, 1}, clip.Root.Keys[1].Value)
	assert.Equal(t, vec3.T{0.5, 2, 2}, clip.Root.Keys[2].Value)

	// Channel k drives joint k+1.
	require.Len(t, clip.Rotations, 2)
	assert.Equal(t, 1, clip.Rotations[0].Joint)
	assert.Equal(t, 2, clip.Rotations[1].Joint)

	require.Len(t, clip.Rotations[1].Keys, 3)
	for c := 0; c < 4; c++ {
		assert.InDelta(t, quaternion.Ident[c], clip.Rotations[0].Keys[0].Value[c], 1e-5)
		assert.InDelta(t, quarterTurnY[c], clip.Rotations[1].Keys[0].Value[c], 1e-5)
	}
}

func TestImportV10(t *testing.T) {
	f := testFile()
	f.Version = V1_0
	data, err := f.Marshal()
	require.NoError(t, err)

	sc := &scene.Scene{}
	require.NoError(t, Importer{}.Import(data, "walk.frm", sc))

	// Without a Z block every root key stays on the XY plane.
	for _, key := range sc.Clip.Root.Keys {
		assert.Equal(t, float32(0), key.Value[2])
	}
}

func TestImporterExtensions(t *testing.T) {
	assert.Equal(t, []string{"frm"}, Importer{}.Extensions())
}
