package frm

import (
	"github.com/gbrlfaria/chaseconv/internal/errors"
	"github.com/gbrlfaria/chaseconv/internal/mathutil"
	"github.com/gbrlfaria/chaseconv/internal/scene"
)

// Exporter encodes a scene clip as FRM data. It always writes the v1.1
// layout.
type Exporter struct{}

// Extension returns the file extension produced by the exporter.
func (Exporter) Extension() string {
	return "frm"
}

// CanExport reports whether the scene carries an animation clip to encode.
func (Exporter) CanExport(sc *scene.Scene) bool {
	return sc.Clip != nil
}

// Export serializes the scene's clip. Rotation tracks must cover joints
// 1..n contiguously and every track must have one key per frame.
func (Exporter) Export(sc *scene.Scene) ([]byte, error) {
	clip := sc.Clip
	if clip == nil {
		return nil, errors.Mark(errors.New("scene has no animation clip"), errors.ErrEncode)
	}

	numFrames := clip.FrameCount()
	for i := range clip.Rotations {
		track := &clip.Rotations[i]
		if track.Joint != i+1 {
			return nil, errors.Mark(
				errors.Newf("rotation track %d targets joint %d, want a contiguous run starting at joint 1", i, track.Joint),
				errors.ErrEncode)
		}
		if len(track.Keys) != numFrames {
			return nil, errors.Mark(
				errors.Newf("rotation track for joint %d has %d keys, want %d", track.Joint, len(track.Keys), numFrames),
				errors.ErrEncode)
		}
	}

	file := &File{
		Version: V1_1,
		PosZ:    make([]float32, numFrames),
	}

	var prevX, prevZ float32
	for f := 0; f < numFrames; f++ {
		pos := clip.Root.Keys[f].Value
		frame := Frame{
			XDelta: pos[0] - prevX,
			PosY:   pos[1],
		}
		file.PosZ[f] = pos[2] - prevZ
		prevX = pos[0]
		prevZ = pos[2]

		for c := range clip.Rotations {
			frame.Rotations = append(frame.Rotations, mathutil.QuatToMat4(clip.Rotations[c].Keys[f].Value))
		}
		file.Frames = append(file.Frames, frame)
	}

	return file.Marshal()
}
