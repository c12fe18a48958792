package scene

import (
	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec3"
)

// FrameRate is the fixed sampling rate of the proprietary animation format.
// Keyframe times of imported and exported clips are spaced 1/FrameRate apart.
const FrameRate = 55.0

// Clip is a keyframe animation: one rotation track per animated non-root
// joint plus exactly one translation track for the root joint.
//
// Rotation tracks may target joints beyond the skeleton that will play the
// clip; the reconciler resolves the mismatch at export time.
type Clip struct {
	Name string

	// Rotations is ordered by target joint index, ascending.
	Rotations []RotationTrack

	// Root is the translation track of the root joint.
	Root TranslationTrack
}

// RotationTrack animates the rotation of one non-root joint.
type RotationTrack struct {
	// Joint is the target joint index; always >= 1 since the root joint
	// carries no rotation channel.
	Joint int
	Keys  []RotationKey
}

// RotationKey is one keyframe of a rotation track.
type RotationKey struct {
	Time  float32
	Value quaternion.T
}

// TranslationTrack animates the root joint's translation.
type TranslationTrack struct {
	Keys []TranslationKey
}

// TranslationKey is one keyframe of a translation track.
type TranslationKey struct {
	Time  float32
	Value vec3.T
}

// FrameCount returns the number of keyframes in the clip, which equals the
// root track's key count.
func (c *Clip) FrameCount() int {
	return len(c.Root.Keys)
}
