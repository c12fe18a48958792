package p3m

import (
	"github.com/flywave/go3d/vec3"

	"github.com/gbrlfaria/chaseconv/internal/errors"
	"github.com/gbrlfaria/chaseconv/internal/scene"
)

// MaxExportJoints bounds the skeletons the canonical layout can encode. A
// skin vertex stores the angle-bone index plus the position bone count in a
// single byte, and with one position bone per joint the largest stored index
// is 2n-1, which must stay below the 0xFF unskinned marker.
const MaxExportJoints = 127

// Exporter encodes the scene model back to P3M bytes.
//
// The output uses the canonical bone layout: one position bone per joint,
// each with a single angle-bone child. Decoding and re-encoding a file that
// already uses the canonical layout is byte-identical; other layouts converge
// to it after one pass.
type Exporter struct{}

// Extension returns the file extension produced by the exporter.
func (Exporter) Extension() string {
	return "p3m"
}

// CanExport reports whether the scene carries model data for this format.
// A scene holding only an animation clip has nothing a model file could
// store.
func (Exporter) CanExport(sc *scene.Scene) bool {
	if sc.Mesh == nil {
		return false
	}
	return len(sc.Mesh.Vertices) > 0 || sc.Skeleton != nil
}

// Export serializes the scene's mesh and skeleton. The scene must pass
// validation; encoding never silently drops data.
func (Exporter) Export(sc *scene.Scene) ([]byte, error) {
	if err := sc.Validate(); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrEncode), "scene rejected for p3m export")
	}
	if sc.Skeleton != nil && len(sc.Skeleton.Joints) > MaxExportJoints {
		return nil, errors.Mark(
			errors.Newf("skeleton has %d joints; the canonical p3m layout supports at most %d",
				len(sc.Skeleton.Joints), MaxExportJoints),
			errors.ErrEncode)
	}

	f := &File{TextureName: ""}
	var world []vec3.T
	numJoints := 0

	if sc.Skeleton != nil {
		numJoints = len(sc.Skeleton.Joints)
		world = sc.Skeleton.WorldTranslations()
		children := sc.Skeleton.Children()

		for i, joint := range sc.Skeleton.Joints {
			f.PositionBones = append(f.PositionBones, PositionBone{
				Position: joint.Translation,
				Children: []uint8{uint8(i)},
			})

			// With one position bone per joint in joint order, a child
			// joint's position bone shares its index.
			angle := AngleBone{}
			for _, child := range children[i] {
				angle.Children = append(angle.Children, uint8(child))
			}
			f.AngleBones = append(f.AngleBones, angle)
		}
	}

	for i := range sc.Mesh.Vertices {
		vertex := &sc.Mesh.Vertices[i]
		skin := SkinVertex{
			Weight:    1,
			BoneIndex: invalidBoneIndex,
			Normal:    vertex.Normal,
			UV:        vertex.UV,
			Position:  vertex.Position,
		}

		if joint, ok := dominantJoint(vertex); ok {
			skin.BoneIndex = uint8(joint + numJoints)
			skin.Position = vec3.Sub(&vertex.Position, &world[joint])
		}

		f.SkinVertices = append(f.SkinVertices, skin)
		f.MeshVertices = append(f.MeshVertices, MeshVertex{
			Position: vertex.Position,
			Normal:   vertex.Normal,
			UV:       vertex.UV,
		})
	}

	for _, index := range sc.Mesh.Indices {
		if index > 0xFFFF {
			return nil, errors.Mark(
				errors.Newf("triangle index %d exceeds uint16", index), errors.ErrEncode)
		}
	}
	for i := 0; i+2 < len(sc.Mesh.Indices); i += 3 {
		f.Faces = append(f.Faces, [3]uint16{
			uint16(sc.Mesh.Indices[i]),
			uint16(sc.Mesh.Indices[i+1]),
			uint16(sc.Mesh.Indices[i+2]),
		})
	}

	return f.Marshal()
}

// dominantJoint returns the influence with the largest weight. The format
// supports a single full-strength influence per vertex, so lesser influences
// are dropped here.
func dominantJoint(vertex *scene.Vertex) (int, bool) {
	best := -1
	var bestWeight float32
	for slot := 0; slot < scene.MaxVertexJoints; slot++ {
		if vertex.Weights[slot] > bestWeight {
			bestWeight = vertex.Weights[slot]
			best = int(vertex.Joints[slot])
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}
