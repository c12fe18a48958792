package gltf

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"sort"

	"github.com/flywave/go3d/quaternion"
	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
	"github.com/qmuntal/gltf"

	"github.com/gbrlfaria/chaseconv/internal/errors"
	"github.com/gbrlfaria/chaseconv/internal/fileutil"
	"github.com/gbrlfaria/chaseconv/internal/mathutil"
	"github.com/gbrlfaria/chaseconv/internal/reconcile"
	"github.com/gbrlfaria/chaseconv/internal/scene"
)

// Importer decodes the constrained GLTF subset this tool produces: one skin
// whose joint nodes follow the root/bone_i naming convention, identity bind
// rotations on non-root joints, and float vertex attributes.
type Importer struct {
	// Log reports skipped document parts. Defaults to slog.Default.
	Log *slog.Logger
}

// Extensions returns the file extensions handled by the importer.
func (Importer) Extensions() []string {
	return []string{"gltf", "glb"}
}

func (im Importer) logger() *slog.Logger {
	if im.Log != nil {
		return im.Log
	}
	return slog.Default()
}

// Import loads the document at path and populates the scene. Only the first
// skin and the first animation are considered; extra ones are skipped with a
// debug log line.
func (im Importer) Import(_ []byte, path string, sc *scene.Scene) error {
	doc, err := gltf.Open(path)
	if err != nil {
		return errors.Wrap(errors.Mark(err, errors.ErrParse), "opening gltf document")
	}

	sc.Name = fileutil.Stem(path)

	var skin *gltf.Skin
	var nodeToJoint map[uint32]int
	if len(doc.Skins) > 0 {
		if len(doc.Skins) > 1 {
			im.logger().Debug("gltf document has multiple skins, using the first",
				"path", path, "skipped", len(doc.Skins)-1)
		}
		skin = doc.Skins[0]
		skeleton, mapping, err := importSkeleton(doc, skin)
		if err != nil {
			return err
		}
		sc.Skeleton = skeleton
		nodeToJoint = mapping
	}

	mesh, err := importMesh(doc, skin, nodeToJoint)
	if err != nil {
		return err
	}
	sc.Mesh = mesh

	if len(doc.Animations) > 0 {
		if len(doc.Animations) > 1 {
			im.logger().Debug("gltf document has multiple animations, using the first",
				"path", path, "skipped", len(doc.Animations)-1)
		}
		clip, err := importClip(doc, doc.Animations[0], nodeToJoint, sc.Name)
		if err != nil {
			return err
		}
		sc.Clip = clip
	}

	return nil
}

func importErrf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), errors.ErrImport)
}

// nodeRotation returns the node's rotation, treating the zero value as
// identity.
func nodeRotation(node *gltf.Node) quaternion.T {
	if node.Rotation == [4]float32{} {
		return quaternion.Ident
	}
	return quaternion.T(node.Rotation)
}

func importSkeleton(doc *gltf.Document, skin *gltf.Skin) (*scene.Skeleton, map[uint32]int, error) {
	numJoints := len(skin.Joints)
	nodeToJoint := make(map[uint32]int, numJoints)
	jointNodes := make([]*gltf.Node, numJoints)

	for _, nodeID := range skin.Joints {
		if int(nodeID) >= len(doc.Nodes) {
			return nil, nil, importErrf("skin references node %d outside the document", nodeID)
		}
		node := doc.Nodes[nodeID]
		index := scene.ParseJointName(node.Name)
		if index < 0 {
			return nil, nil, importErrf("joint node %q does not follow the %q/%q naming convention",
				node.Name, scene.RootJointName, "bone_{i}")
		}
		if index >= numJoints {
			return nil, nil, importErrf("joint %q is outside the skin's %d joints", node.Name, numJoints)
		}
		if jointNodes[index] != nil {
			return nil, nil, importErrf("duplicate joint name %q", node.Name)
		}
		jointNodes[index] = node
		nodeToJoint[nodeID] = index
	}

	// The index set is complete: numJoints names, each unique and in range.

	parents := make([]int, numJoints)
	for i := range parents {
		parents[i] = scene.NoParent
	}
	for id, node := range doc.Nodes {
		parent, ok := nodeToJoint[uint32(id)]
		if !ok {
			continue
		}
		for _, child := range node.Children {
			if childJoint, ok := nodeToJoint[child]; ok {
				parents[childJoint] = parent
			}
		}
	}

	skeleton := &scene.Skeleton{}
	for i := 0; i < numJoints; i++ {
		node := jointNodes[i]
		joint := scene.Joint{
			Name:        scene.JointName(i),
			Parent:      parents[i],
			Translation: flipVec(vec3.T(node.Translation)),
			Rotation:    flipQuat(nodeRotation(node)),
		}
		if i == 0 {
			if joint.Parent != scene.NoParent {
				return nil, nil, importErrf("the root joint must not be the child of another joint")
			}
		} else {
			if joint.Parent == scene.NoParent {
				return nil, nil, importErrf("joint %q is not attached to the hierarchy", node.Name)
			}
			if joint.Parent >= i {
				return nil, nil, importErrf("joint %q precedes its parent %q", node.Name, scene.JointName(joint.Parent))
			}
		}
		skeleton.Joints = append(skeleton.Joints, joint)
	}

	if err := reconcile.EnforceBindPose(skeleton); err != nil {
		return nil, nil, err
	}
	if err := validateBindMatrices(doc, skin); err != nil {
		return nil, nil, err
	}

	return skeleton, nodeToJoint, nil
}

// validateBindMatrices checks that the skin's inverse bind matrices carry no
// rotation on non-root joints. Bind translations are derived from the node
// transforms, so the matrices are otherwise unused.
func validateBindMatrices(doc *gltf.Document, skin *gltf.Skin) error {
	if skin.InverseBindMatrices == nil {
		return nil
	}
	matrices, err := readMat4Accessor(doc, *skin.InverseBindMatrices)
	if err != nil {
		return err
	}
	if len(matrices) < len(skin.Joints) {
		return importErrf("skin has %d inverse bind matrices for %d joints", len(matrices), len(skin.Joints))
	}
	for i, m := range matrices {
		if i == 0 {
			continue
		}
		// GLTF matrices are column-major.
		var rot mathutil.Mat4
		for row := 0; row < 3; row++ {
			for col := 0; col < 3; col++ {
				rot[row][col] = m[col*4+row]
			}
		}
		rot[3][3] = 1
		if !scene.IsIdentityRotation(mathutil.Mat4ToQuat(rot)) {
			return importErrf("inverse bind matrix of joint %d carries a rotation", i)
		}
	}
	return nil
}

func importMesh(doc *gltf.Document, skin *gltf.Skin, nodeToJoint map[uint32]int) (*scene.Mesh, error) {
	mesh := &scene.Mesh{}
	if len(doc.Meshes) == 0 {
		return mesh, nil
	}

	for _, prim := range doc.Meshes[0].Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			return nil, importErrf("mesh primitive mode %d is unsupported, only triangles are", prim.Mode)
		}

		posID, ok := prim.Attributes["POSITION"]
		if !ok {
			return nil, importErrf("mesh primitive has no POSITION attribute")
		}
		positions, err := readVec3Accessor(doc, posID)
		if err != nil {
			return nil, err
		}

		var normals []vec3.T
		if id, ok := prim.Attributes["NORMAL"]; ok {
			if normals, err = readVec3Accessor(doc, id); err != nil {
				return nil, err
			}
		}
		var uvs []vec2.T
		if id, ok := prim.Attributes["TEXCOORD_0"]; ok {
			if uvs, err = readVec2Accessor(doc, id); err != nil {
				return nil, err
			}
		}
		var joints [][4]uint16
		if id, ok := prim.Attributes["JOINTS_0"]; ok {
			if joints, err = readJointsAccessor(doc, id); err != nil {
				return nil, err
			}
		}
		var weights [][4]float32
		if id, ok := prim.Attributes["WEIGHTS_0"]; ok {
			if weights, err = readVec4Accessor(doc, id); err != nil {
				return nil, err
			}
		}
		for name, n := range map[string]int{
			"NORMAL": len(normals), "TEXCOORD_0": len(uvs),
			"JOINTS_0": len(joints), "WEIGHTS_0": len(weights),
		} {
			if n != 0 && n != len(positions) {
				return nil, importErrf("%s attribute has %d entries for %d vertices", name, n, len(positions))
			}
		}

		base := uint32(len(mesh.Vertices))
		for i := range positions {
			vertex := scene.Vertex{Position: flipVec(positions[i])}
			if normals != nil {
				vertex.Normal = flipVec(normals[i])
			}
			if uvs != nil {
				vertex.UV = uvs[i]
			}
			if weights != nil && joints != nil {
				for slot := 0; slot < scene.MaxVertexJoints; slot++ {
					w := weights[i][slot]
					if w == 0 {
						continue
					}
					if skin == nil {
						return nil, importErrf("vertex %d is skinned but the document has no skin", i)
					}
					slotValue := joints[i][slot]
					if int(slotValue) >= len(skin.Joints) {
						return nil, importErrf("vertex %d references joint slot %d outside the skin", i, slotValue)
					}
					joint := nodeToJoint[skin.Joints[slotValue]]
					if joint > 0xFF {
						return nil, importErrf("joint index %d exceeds the supported range", joint)
					}
					vertex.Joints[slot] = uint8(joint)
					vertex.Weights[slot] = w
				}
			}
			mesh.Vertices = append(mesh.Vertices, vertex)
		}

		var indices []uint32
		if prim.Indices != nil {
			if indices, err = readIndexAccessor(doc, *prim.Indices); err != nil {
				return nil, err
			}
			if len(indices)%3 != 0 {
				return nil, importErrf("index accessor has %d entries, not a whole number of triangles", len(indices))
			}
		} else {
			indices = make([]uint32, len(positions)/3*3)
			for i := range indices {
				indices[i] = uint32(i)
			}
		}
		for i := 0; i+2 < len(indices); i += 3 {
			// Winding flips with the basis change.
			mesh.Indices = append(mesh.Indices, base+indices[i], base+indices[i+2], base+indices[i+1])
		}
	}

	return mesh, nil
}

func importClip(doc *gltf.Document, anim *gltf.Animation, nodeToJoint map[uint32]int, fallbackName string) (*scene.Clip, error) {
	clip := &scene.Clip{Name: anim.Name}
	if clip.Name == "" {
		clip.Name = fallbackName
	}

	rotations := make(map[int][]scene.RotationKey)
	for _, channel := range anim.Channels {
		if channel.Target.Node == nil || channel.Sampler == nil {
			continue
		}
		joint, ok := nodeToJoint[*channel.Target.Node]
		if !ok {
			continue
		}
		if int(*channel.Sampler) >= len(anim.Samplers) {
			return nil, importErrf("animation channel references sampler %d outside the animation", *channel.Sampler)
		}
		sampler := anim.Samplers[*channel.Sampler]
		if sampler.Input == nil || sampler.Output == nil {
			continue
		}
		times, err := readScalarAccessor(doc, *sampler.Input)
		if err != nil {
			return nil, err
		}

		switch channel.Target.Path {
		case gltf.TRSRotation:
			// The root joint carries no rotation channel in the target
			// format; scale and non-root translations are equally out of
			// scope. All are skipped, not erred on.
			if joint == 0 {
				continue
			}
			if _, ok := rotations[joint]; ok {
				continue
			}
			values, err := readVec4Accessor(doc, *sampler.Output)
			if err != nil {
				return nil, err
			}
			if len(values) < len(times) {
				return nil, importErrf("rotation sampler has %d values for %d keyframes", len(values), len(times))
			}
			keys := make([]scene.RotationKey, len(times))
			for i := range times {
				keys[i] = scene.RotationKey{Time: times[i], Value: flipQuat(quaternion.T(values[i]))}
			}
			rotations[joint] = keys

		case gltf.TRSTranslation:
			if joint != 0 || len(clip.Root.Keys) > 0 {
				continue
			}
			values, err := readVec3Accessor(doc, *sampler.Output)
			if err != nil {
				return nil, err
			}
			if len(values) < len(times) {
				return nil, importErrf("translation sampler has %d values for %d keyframes", len(values), len(times))
			}
			for i := range times {
				clip.Root.Keys = append(clip.Root.Keys, scene.TranslationKey{Time: times[i], Value: flipVec(values[i])})
			}
		}
	}

	targets := make([]int, 0, len(rotations))
	for joint := range rotations {
		targets = append(targets, joint)
	}
	sort.Ints(targets)
	for _, joint := range targets {
		clip.Rotations = append(clip.Rotations, scene.RotationTrack{Joint: joint, Keys: rotations[joint]})
	}

	return clip, nil
}

// accessorData bounds-checks the accessor and returns its raw bytes. Sparse
// and interleaved accessors are outside the supported subset.
func accessorData(doc *gltf.Document, id uint32, elemSize int) (*gltf.Accessor, []byte, error) {
	if int(id) >= len(doc.Accessors) {
		return nil, nil, importErrf("accessor %d is outside the document", id)
	}
	acc := doc.Accessors[id]
	if acc.BufferView == nil {
		return nil, nil, importErrf("accessor %d has no buffer view", id)
	}
	if int(*acc.BufferView) >= len(doc.BufferViews) {
		return nil, nil, importErrf("accessor %d references buffer view %d outside the document", id, *acc.BufferView)
	}
	view := doc.BufferViews[*acc.BufferView]
	if view.ByteStride != 0 && int(view.ByteStride) != elemSize {
		return nil, nil, importErrf("accessor %d uses an interleaved buffer view", id)
	}
	if int(view.Buffer) >= len(doc.Buffers) {
		return nil, nil, importErrf("buffer view %d references buffer %d outside the document", *acc.BufferView, view.Buffer)
	}
	buffer := doc.Buffers[view.Buffer]
	start := int(view.ByteOffset) + int(acc.ByteOffset)
	end := start + int(acc.Count)*elemSize
	if start > end || end > len(buffer.Data) {
		return nil, nil, errors.Mark(
			errors.Newf("accessor %d overruns the %d-byte buffer", id, len(buffer.Data)),
			errors.ErrParse)
	}
	return acc, buffer.Data[start:end], nil
}

func readVec3Accessor(doc *gltf.Document, id uint32) ([]vec3.T, error) {
	acc, data, err := accessorData(doc, id, 12)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltf.ComponentFloat || acc.Type != gltf.AccessorVec3 {
		return nil, importErrf("accessor %d is not a float vec3 accessor", id)
	}
	out := make([]vec3.T, acc.Count)
	readLittle(data, out)
	return out, nil
}

func readVec2Accessor(doc *gltf.Document, id uint32) ([]vec2.T, error) {
	acc, data, err := accessorData(doc, id, 8)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltf.ComponentFloat || acc.Type != gltf.AccessorVec2 {
		return nil, importErrf("accessor %d is not a float vec2 accessor", id)
	}
	out := make([]vec2.T, acc.Count)
	readLittle(data, out)
	return out, nil
}

func readVec4Accessor(doc *gltf.Document, id uint32) ([][4]float32, error) {
	acc, data, err := accessorData(doc, id, 16)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltf.ComponentFloat || acc.Type != gltf.AccessorVec4 {
		return nil, importErrf("accessor %d is not a float vec4 accessor", id)
	}
	out := make([][4]float32, acc.Count)
	readLittle(data, out)
	return out, nil
}

func readScalarAccessor(doc *gltf.Document, id uint32) ([]float32, error) {
	acc, data, err := accessorData(doc, id, 4)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltf.ComponentFloat || acc.Type != gltf.AccessorScalar {
		return nil, importErrf("accessor %d is not a float scalar accessor", id)
	}
	out := make([]float32, acc.Count)
	readLittle(data, out)
	return out, nil
}

func readMat4Accessor(doc *gltf.Document, id uint32) ([][16]float32, error) {
	acc, data, err := accessorData(doc, id, 64)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltf.ComponentFloat || acc.Type != gltf.AccessorMat4 {
		return nil, importErrf("accessor %d is not a float mat4 accessor", id)
	}
	out := make([][16]float32, acc.Count)
	readLittle(data, out)
	return out, nil
}

func readJointsAccessor(doc *gltf.Document, id uint32) ([][4]uint16, error) {
	if int(id) >= len(doc.Accessors) {
		return nil, importErrf("accessor %d is outside the document", id)
	}
	switch doc.Accessors[id].ComponentType {
	case gltf.ComponentUbyte:
		acc, data, err := accessorData(doc, id, 4)
		if err != nil {
			return nil, err
		}
		if acc.Type != gltf.AccessorVec4 {
			return nil, importErrf("accessor %d is not a vec4 joint accessor", id)
		}
		out := make([][4]uint16, acc.Count)
		for i := range out {
			for c := 0; c < 4; c++ {
				out[i][c] = uint16(data[i*4+c])
			}
		}
		return out, nil
	case gltf.ComponentUshort:
		acc, data, err := accessorData(doc, id, 8)
		if err != nil {
			return nil, err
		}
		if acc.Type != gltf.AccessorVec4 {
			return nil, importErrf("accessor %d is not a vec4 joint accessor", id)
		}
		out := make([][4]uint16, acc.Count)
		readLittle(data, out)
		return out, nil
	default:
		return nil, importErrf("accessor %d has an unsupported joint component type", id)
	}
}

func readIndexAccessor(doc *gltf.Document, id uint32) ([]uint32, error) {
	if int(id) >= len(doc.Accessors) {
		return nil, importErrf("accessor %d is outside the document", id)
	}
	switch doc.Accessors[id].ComponentType {
	case gltf.ComponentUbyte:
		acc, data, err := accessorData(doc, id, 1)
		if err != nil {
			return nil, err
		}
		out := make([]uint32, acc.Count)
		for i := range out {
			out[i] = uint32(data[i])
		}
		return out, nil
	case gltf.ComponentUshort:
		acc, data, err := accessorData(doc, id, 2)
		if err != nil {
			return nil, err
		}
		raw := make([]uint16, acc.Count)
		readLittle(data, raw)
		out := make([]uint32, acc.Count)
		for i := range raw {
			out[i] = uint32(raw[i])
		}
		return out, nil
	case gltf.ComponentUint:
		acc, data, err := accessorData(doc, id, 4)
		if err != nil {
			return nil, err
		}
		out := make([]uint32, acc.Count)
		readLittle(data, out)
		return out, nil
	default:
		return nil, importErrf("accessor %d has an unsupported index component type", id)
	}
}

// readLittle decodes a tightly packed little-endian slice. The caller has
// already bounds-checked data against the element count.
func readLittle(data []byte, out interface{}) {
	binary.Read(bytes.NewReader(data), binary.LittleEndian, out)
}
