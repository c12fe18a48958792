// Package gltf converts scenes to and from GLTF 2.0 documents. The importer
// accepts the constrained subset this tool emits: a single skin, canonical
// joint names, and identity bind rotations. The exporter builds one scene,
// one skin, and one mesh with an optional animation, packed into a single
// binary buffer.
package gltf

import (
	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec3"
)

// Game assets use a left-handed Y-up basis while GLTF is right-handed Y-up.
// The change of basis negates Z. Applying it twice is the identity, so the
// same helpers serve both directions. Triangle winding flips with the basis;
// the codec swaps the second and third index of every triangle when reading
// and writing.

func flipVec(v vec3.T) vec3.T {
	return vec3.T{v[0], v[1], -v[2]}
}

// flipQuat conjugates q by the Z-negating basis change.
func flipQuat(q quaternion.T) quaternion.T {
	return quaternion.T{-q[0], -q[1], q[2], q[3]}
}
