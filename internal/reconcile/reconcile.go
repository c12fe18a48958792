// Package reconcile resolves the asymmetry between a model's joint count and
// an animation's channel count. Animations are sometimes authored against a
// richer skeleton than the model that plays them; the surplus channels are
// discarded by joint index and the discard count is reported so the caller
// can surface it.
package reconcile

import (
	"github.com/gbrlfaria/chaseconv/internal/errors"
	"github.com/gbrlfaria/chaseconv/internal/scene"
)

// ResolveTracks returns a clip whose rotation tracks all target joints of
// skel, along with the number of tracks discarded for targeting joints the
// skeleton does not have. The root translation track is always kept; it
// corresponds to the skeleton's root by construction. No remapping or
// interpolation happens beyond this index-based keep/discard rule.
//
// The input clip is not modified. When nothing needs discarding the input
// clip is returned as is.
func ResolveTracks(clip *scene.Clip, skel *scene.Skeleton) (*scene.Clip, int) {
	if clip == nil || skel == nil {
		return clip, 0
	}

	numJoints := len(skel.Joints)
	discarded := 0
	for i := range clip.Rotations {
		if clip.Rotations[i].Joint >= numJoints {
			discarded++
		}
	}
	if discarded == 0 {
		return clip, 0
	}

	resolved := &scene.Clip{Name: clip.Name, Root: clip.Root}
	for i := range clip.Rotations {
		if clip.Rotations[i].Joint < numJoints {
			resolved.Rotations = append(resolved.Rotations, clip.Rotations[i])
		}
	}
	return resolved, discarded
}

// EnforceBindPose rejects a skeleton whose non-root joints carry a bind
// rotation. Downstream animation math assumes identity bind rotation
// everywhere but the root, so a violation is a hard import error rather
// than a warning.
func EnforceBindPose(skel *scene.Skeleton) error {
	if skel == nil {
		return nil
	}
	for i := 1; i < len(skel.Joints); i++ {
		if !scene.IsIdentityRotation(skel.Joints[i].Rotation) {
			return errors.Mark(
				errors.Newf("joint %q has a non-identity bind rotation", skel.Joints[i].Name),
				errors.ErrImport)
		}
	}
	return nil
}
