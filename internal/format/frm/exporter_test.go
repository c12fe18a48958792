package frm

import (
	"testing"

	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbrlfaria/chaseconv/internal/errors"
	"github.com/gbrlfaria/chaseconv/internal/scene"
)

func testClip() *scene.Clip {
	clip := &scene.Clip{Name: "walk"}
	positions := []vec3.T{{1, 2, 0}, {1.5, 2.5, 1}, {0.5, 2, 2}}
	for i, pos := range positions {
		time := float32(i) / scene.FrameRate
		clip.Root.Keys = append(clip.Root.Keys, scene.TranslationKey{Time: time, Value: pos})
	}
	for joint := 1; joint <= 2; joint++ {
		track := scene.RotationTrack{Joint: joint}
		for i := range positions {
			track.Keys = append(track.Keys, scene.RotationKey{
				Time:  float32(i) / scene.FrameRate,
				Value: quaternion.Ident,
			})
		}
		clip.Rotations = append(clip.Rotations, track)
	}
	return clip
}

func TestExport(t *testing.T) {
	data, err := Exporter{}.Export(&scene.Scene{Clip: testClip()})
	require.NoError(t, err)

	f, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, V1_1, f.Version)
	require.Len(t, f.Frames, 3)
	assert.Equal(t, 2, f.ChannelCount())

	// X and Z are stored as deltas, Y as absolute values.
	assert.Equal(t, float32(1), f.Frames[0].XDelta)
	assert.Equal(t, float32(0.5), f.Frames[1].XDelta)
	assert.Equal(t, float32(-1), f.Frames[2].XDelta)
	assert.Equal(t, float32(2.5), f.Frames[1].PosY)
	assert.Equal(t, []float32{0, 1, 1}, f.PosZ)
}

func TestExportImportRoundTrip(t *testing.T) {
	clip := testClip()
	data, err := Exporter{}.Export(&scene.Scene{Clip: clip})
	require.NoError(t, err)

	got := &scene.Scene{}
	require.NoError(t, Importer{}.Import(data, "walk.frm", got))

	require.NotNil(t, got.Clip)
	require.Len(t, got.Clip.Root.Keys, 3)
	for i, key := range got.Clip.Root.Keys {
		for c := 0; c < 3; c++ {
			assert.InDelta(t, clip.Root.Keys[i].Value[c], key.Value[c], 1e-5)
		}
	}
	require.Len(t, got.Clip.Rotations, 2)
	assert.Equal(t, 1, got.Clip.Rotations[0].Joint)
	assert.Equal(t, 2, got.Clip.Rotations[1].Joint)
}

func TestExportWithoutClip(t *testing.T) {
	_, err := Exporter{}.Export(&scene.Scene{})
	assert.ErrorIs(t, err, errors.ErrEncode)
}

func TestExportNonContiguousTracks(t *testing.T) {
	clip := testClip()
	clip.Rotations[1].Joint = 5

	_, err := Exporter{}.Export(&scene.Scene{Clip: clip})
	assert.ErrorIs(t, err, errors.ErrEncode)
}

func TestExportUnevenTrackLengths(t *testing.T) {
	clip := testClip()
	clip.Rotations[0].Keys = clip.Rotations[0].Keys[:2]

	_, err := Exporter{}.Export(&scene.Scene{Clip: clip})
	assert.ErrorIs(t, err, errors.ErrEncode)
}

func TestExporterCanExport(t *testing.T) {
	assert.True(t, Exporter{}.CanExport(&scene.Scene{Clip: testClip()}))
	assert.False(t, Exporter{}.CanExport(&scene.Scene{}))
}
