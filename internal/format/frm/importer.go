package frm

import (
	"github.com/flywave/go3d/vec3"

	"github.com/gbrlfaria/chaseconv/internal/fileutil"
	"github.com/gbrlfaria/chaseconv/internal/mathutil"
	"github.com/gbrlfaria/chaseconv/internal/scene"
)

// Importer decodes FRM animation data into a scene clip.
type Importer struct{}

// Extensions returns the file extensions handled by the importer.
func (Importer) Extensions() []string {
	return []string{"frm"}
}

// Import parses FRM bytes and attaches the resulting clip to the scene.
// Rotation channel k drives joint k+1; joint 0 only ever translates.
func (Importer) Import(data []byte, path string, sc *scene.Scene) error {
	file, err := Unmarshal(data)
	if err != nil {
		return err
	}

	clip := &scene.Clip{Name: fileutil.Stem(path)}

	channels := file.ChannelCount()
	for c := 0; c < channels; c++ {
		clip.Rotations = append(clip.Rotations, scene.RotationTrack{Joint: c + 1})
	}

	// X and Z are stored as frame-over-frame deltas, Y is absolute.
	var x, z float32
	for i := range file.Frames {
		frame := &file.Frames[i]
		t := float32(i) / scene.FrameRate

		x += frame.XDelta
		z += file.PosZ[i]
		clip.Root.Keys = append(clip.Root.Keys, scene.TranslationKey{
			Time:  t,
			Value: vec3.T{x, frame.PosY, z},
		})

		for c, m := range frame.Rotations {
			clip.Rotations[c].Keys = append(clip.Rotations[c].Keys, scene.RotationKey{
				Time:  t,
				Value: mathutil.Mat4ToQuat(m),
			})
		}
	}

	sc.Clip = clip
	return nil
}
