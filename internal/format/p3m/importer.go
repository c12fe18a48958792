package p3m

import (
	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"github.com/gbrlfaria/chaseconv/internal/errors"
	"github.com/gbrlfaria/chaseconv/internal/fileutil"
	"github.com/gbrlfaria/chaseconv/internal/scene"
)

// Importer decodes P3M files into the scene model.
type Importer struct{}

// Extensions returns the file extensions handled by the importer, without
// the leading period.
func (Importer) Extensions() []string { return []string{"p3m"} }

// Import parses data and populates the scene's mesh and skeleton. The scene
// takes its name from the source file's stem.
func (Importer) Import(data []byte, path string, sc *scene.Scene) error {
	f, err := Unmarshal(data)
	if err != nil {
		return errors.Wrap(err, "decoding p3m asset")
	}

	skeleton, err := convertJoints(f)
	if err != nil {
		return err
	}
	mesh, err := convertMesh(f, skeleton)
	if err != nil {
		return err
	}

	sc.Name = fileutil.Stem(path)
	sc.Skeleton = skeleton
	sc.Mesh = mesh
	return nil
}

// convertJoints squashes position and angle bones into the scene's single
// joint list. Angle bones are the joints; their translations come from the
// position bones that parent them, and the hierarchy follows the child links
// through both bone kinds.
func convertJoints(f *File) (*scene.Skeleton, error) {
	joints := make([]scene.Joint, len(f.AngleBones))

	for i := range joints {
		joints[i].Parent = scene.NoParent
		joints[i].Rotation = quaternion.Ident
	}

	for i := range f.PositionBones {
		bone := &f.PositionBones[i]
		for _, child := range bone.Children {
			joints[child].Translation = vec3.T(bone.Position)
		}
	}

	parents := make([]int, len(joints))
	for i := range parents {
		parents[i] = scene.NoParent
	}
	for i := range f.AngleBones {
		for _, posChild := range f.AngleBones[i].Children {
			for _, child := range f.PositionBones[posChild].Children {
				parents[child] = i
			}
		}
	}

	for child, parent := range parents {
		if parent == scene.NoParent {
			continue
		}
		if parent >= child {
			return nil, errors.Mark(
				errors.Newf("bone %d has parent %d; the hierarchy is not topologically ordered", child, parent),
				errors.ErrParse)
		}
		joints[child].Parent = parent
	}

	// Stray parentless bones beyond the first are re-parented to the root.
	// Subtracting the root translation keeps their world bind translation.
	for i := 1; i < len(joints); i++ {
		if joints[i].Parent == scene.NoParent {
			joints[i].Parent = 0
			joints[i].Translation = vec3.Sub(&joints[i].Translation, &joints[0].Translation)
		}
	}

	for i := range joints {
		joints[i].Name = scene.JointName(i)
	}

	return &scene.Skeleton{Joints: joints}, nil
}

// convertMesh resolves skin vertices to absolute positions. Unskinned mesh
// vertices are ignored; the exporter recomputes them.
func convertMesh(f *File, skeleton *scene.Skeleton) (*scene.Mesh, error) {
	world := skeleton.WorldTranslations()

	mesh := &scene.Mesh{
		Vertices: make([]scene.Vertex, 0, len(f.SkinVertices)),
		Indices:  make([]uint32, 0, len(f.Faces)*3),
	}

	for i := range f.SkinVertices {
		raw := &f.SkinVertices[i]
		vertex := scene.Vertex{
			Position: vec3.T(raw.Position),
			Normal:   vec3.T(raw.Normal),
			UV:       vec2.T(raw.UV),
		}

		if raw.BoneIndex != invalidBoneIndex {
			joint := int(raw.BoneIndex) - len(f.PositionBones)
			if joint < 0 || joint >= len(skeleton.Joints) {
				return nil, errors.Mark(
					errors.Newf("vertex %d references bone %d outside the %d-joint skeleton",
						i, raw.BoneIndex, len(skeleton.Joints)),
					errors.ErrParse)
			}
			vertex.Position = vec3.Add(&vertex.Position, &world[joint])
			vertex.Joints[0] = uint8(joint)
			vertex.Weights[0] = 1
		}

		mesh.Vertices = append(mesh.Vertices, vertex)
	}

	for _, face := range f.Faces {
		for _, index := range face {
			if int(index) >= len(mesh.Vertices) {
				return nil, errors.Mark(
					errors.Newf("face index %d exceeds vertex count %d", index, len(mesh.Vertices)),
					errors.ErrParse)
			}
			mesh.Indices = append(mesh.Indices, uint32(index))
		}
	}

	return mesh, nil
}
