package gltf

import (
	"bytes"
	"encoding/binary"

	"github.com/qmuntal/gltf"

	"github.com/gbrlfaria/chaseconv/internal/errors"
	"github.com/gbrlfaria/chaseconv/internal/scene"
)

const gltfVersion = "2.0"

// Exporter encodes a scene as a binary GLTF (.glb) document.
type Exporter struct{}

// Extension returns the file extension produced by the exporter.
func (Exporter) Extension() string {
	return "glb"
}

// CanExport reports whether the scene can target this format. Any scene may
// attempt a GLTF export; unsupported combinations fail in Export.
func (Exporter) CanExport(*scene.Scene) bool {
	return true
}

// Export builds a GLTF document with one scene, the joint hierarchy as named
// nodes, one skin, one mesh, and the animation when a clip is present.
//
// A clip without a skeleton cannot be exported: the animation channels are
// meaningless without the joint hierarchy that defines which node they
// target.
func (Exporter) Export(sc *scene.Scene) ([]byte, error) {
	if sc.Clip != nil && sc.Skeleton == nil {
		return nil, errors.Mark(
			errors.New("scene has an animation clip but no skeleton"),
			errors.ErrEncode)
	}
	if err := sc.Validate(); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrEncode), "scene rejected for gltf export")
	}

	doc := newDocument()
	b := &builder{doc: doc}

	var skinID *uint32
	if sc.Skeleton != nil {
		id := b.addSkeleton(sc.Skeleton)
		skinID = &id
	}

	meshNode := &gltf.Node{Name: sc.Name, Skin: skinID}
	if len(sc.Mesh.Vertices) > 0 {
		id := b.addMesh(sc.Mesh)
		meshNode.Mesh = &id
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
	doc.Nodes = append(doc.Nodes, meshNode)

	if sc.Clip != nil {
		if err := b.addAnimation(sc.Clip, len(sc.Skeleton.Joints)); err != nil {
			return nil, err
		}
	}

	return encodeBinary(doc)
}

func newDocument() *gltf.Document {
	doc := &gltf.Document{}
	doc.Asset.Version = gltfVersion
	sceneID := uint32(0)
	doc.Scene = &sceneID
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	return doc
}

// builder accumulates buffer views and accessors into the document's single
// buffer.
type builder struct {
	doc *gltf.Document
}

func (b *builder) addBufferView(data []byte) uint32 {
	buffer := b.doc.Buffers[0]
	view := &gltf.BufferView{
		Buffer:     0,
		ByteOffset: buffer.ByteLength,
		ByteLength: uint32(len(data)),
	}
	buffer.Data = append(buffer.Data, data...)
	buffer.ByteLength += uint32(len(data))
	b.doc.BufferViews = append(b.doc.BufferViews, view)
	return uint32(len(b.doc.BufferViews) - 1)
}

func (b *builder) addAccessor(acc *gltf.Accessor, data []byte) uint32 {
	view := b.addBufferView(data)
	acc.BufferView = &view
	b.doc.Accessors = append(b.doc.Accessors, acc)
	return uint32(len(b.doc.Accessors) - 1)
}

// addSkeleton appends one node per joint, in joint order and before any
// other node, so node indices equal joint indices. It returns the skin
// index.
func (b *builder) addSkeleton(skel *scene.Skeleton) uint32 {
	children := skel.Children()
	for i := range skel.Joints {
		joint := &skel.Joints[i]
		node := &gltf.Node{
			Name:        joint.Name,
			Translation: [3]float32(flipVec(joint.Translation)),
		}
		if !scene.IsIdentityRotation(joint.Rotation) {
			node.Rotation = [4]float32(flipQuat(joint.Rotation))
		}
		for _, child := range children[i] {
			node.Children = append(node.Children, uint32(child))
		}
		b.doc.Nodes = append(b.doc.Nodes, node)
	}
	b.doc.Scenes[0].Nodes = append(b.doc.Scenes[0].Nodes, 0)

	// The inverse bind matrices undo the world bind translation; the bind
	// pose carries no rotation or scale.
	world := skel.WorldTranslations()
	buf := &bytes.Buffer{}
	for i := range skel.Joints {
		t := flipVec(world[i])
		binary.Write(buf, binary.LittleEndian, [16]float32{
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 1, 0,
			-t[0], -t[1], -t[2], 1,
		})
	}
	ibm := b.addAccessor(&gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorMat4,
		Count:         uint32(len(skel.Joints)),
	}, buf.Bytes())

	root := uint32(0)
	skin := &gltf.Skin{
		InverseBindMatrices: &ibm,
		Skeleton:            &root,
	}
	for i := range skel.Joints {
		skin.Joints = append(skin.Joints, uint32(i))
	}
	b.doc.Skins = append(b.doc.Skins, skin)
	return uint32(len(b.doc.Skins) - 1)
}

func (b *builder) addMesh(mesh *scene.Mesh) uint32 {
	primitive := &gltf.Primitive{
		Attributes: make(gltf.Attribute),
		Mode:       gltf.PrimitiveTriangles,
	}

	buf := &bytes.Buffer{}
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		// Winding flips with the basis change.
		binary.Write(buf, binary.LittleEndian,
			[3]uint32{mesh.Indices[i], mesh.Indices[i+2], mesh.Indices[i+1]})
	}
	if len(mesh.Indices) > 0 {
		index := b.addAccessor(&gltf.Accessor{
			ComponentType: gltf.ComponentUint,
			Type:          gltf.AccessorScalar,
			Count:         uint32(len(mesh.Indices)),
		}, buf.Bytes())
		primitive.Indices = &index
	}

	min := flipVec(mesh.Vertices[0].Position)
	max := min
	buf = &bytes.Buffer{}
	for i := range mesh.Vertices {
		p := flipVec(mesh.Vertices[i].Position)
		binary.Write(buf, binary.LittleEndian, p)
		for c := 0; c < 3; c++ {
			if p[c] < min[c] {
				min[c] = p[c]
			}
			if p[c] > max[c] {
				max[c] = p[c]
			}
		}
	}
	primitive.Attributes["POSITION"] = b.addAccessor(&gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec3,
		Count:         uint32(len(mesh.Vertices)),
		Min:           []float32{min[0], min[1], min[2]},
		Max:           []float32{max[0], max[1], max[2]},
	}, buf.Bytes())

	buf = &bytes.Buffer{}
	for i := range mesh.Vertices {
		binary.Write(buf, binary.LittleEndian, flipVec(mesh.Vertices[i].Normal))
	}
	primitive.Attributes["NORMAL"] = b.addAccessor(&gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec3,
		Count:         uint32(len(mesh.Vertices)),
	}, buf.Bytes())

	buf = &bytes.Buffer{}
	for i := range mesh.Vertices {
		binary.Write(buf, binary.LittleEndian, mesh.Vertices[i].UV)
	}
	primitive.Attributes["TEXCOORD_0"] = b.addAccessor(&gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec2,
		Count:         uint32(len(mesh.Vertices)),
	}, buf.Bytes())

	buf = &bytes.Buffer{}
	for i := range mesh.Vertices {
		binary.Write(buf, binary.LittleEndian, mesh.Vertices[i].Joints)
	}
	primitive.Attributes["JOINTS_0"] = b.addAccessor(&gltf.Accessor{
		ComponentType: gltf.ComponentUbyte,
		Type:          gltf.AccessorVec4,
		Count:         uint32(len(mesh.Vertices)),
	}, buf.Bytes())

	buf = &bytes.Buffer{}
	for i := range mesh.Vertices {
		binary.Write(buf, binary.LittleEndian, mesh.Vertices[i].Weights)
	}
	primitive.Attributes["WEIGHTS_0"] = b.addAccessor(&gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec4,
		Count:         uint32(len(mesh.Vertices)),
	}, buf.Bytes())

	b.doc.Meshes = append(b.doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{primitive},
	})
	return uint32(len(b.doc.Meshes) - 1)
}

func (b *builder) addAnimation(clip *scene.Clip, numJoints int) error {
	for _, track := range clip.Rotations {
		if track.Joint >= numJoints {
			return errors.Mark(
				errors.Newf("rotation track targets joint %d outside the %d-joint skeleton", track.Joint, numJoints),
				errors.ErrEncode)
		}
	}

	anim := &gltf.Animation{Name: clip.Name}

	if len(clip.Root.Keys) > 0 {
		times := make([]float32, len(clip.Root.Keys))
		buf := &bytes.Buffer{}
		for i, key := range clip.Root.Keys {
			times[i] = key.Time
			binary.Write(buf, binary.LittleEndian, flipVec(key.Value))
		}
		output := b.addAccessor(&gltf.Accessor{
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec3,
			Count:         uint32(len(clip.Root.Keys)),
		}, buf.Bytes())
		b.addChannel(anim, 0, gltf.TRSTranslation, times, output)
	}

	for _, track := range clip.Rotations {
		if len(track.Keys) == 0 {
			continue
		}
		times := make([]float32, len(track.Keys))
		buf := &bytes.Buffer{}
		for i, key := range track.Keys {
			times[i] = key.Time
			binary.Write(buf, binary.LittleEndian, flipQuat(key.Value))
		}
		output := b.addAccessor(&gltf.Accessor{
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec4,
			Count:         uint32(len(track.Keys)),
		}, buf.Bytes())
		b.addChannel(anim, uint32(track.Joint), gltf.TRSRotation, times, output)
	}

	if len(anim.Channels) > 0 {
		b.doc.Animations = append(b.doc.Animations, anim)
	}
	return nil
}

func (b *builder) addChannel(anim *gltf.Animation, node uint32, path gltf.TRSProperty, times []float32, output uint32) {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, times)
	input := b.addAccessor(&gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorScalar,
		Count:         uint32(len(times)),
		Min:           []float32{times[0]},
		Max:           []float32{times[len(times)-1]},
	}, buf.Bytes())

	sampler := uint32(len(anim.Samplers))
	anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
		Input:         &input,
		Output:        &output,
		Interpolation: gltf.InterpolationLinear,
	})
	anim.Channels = append(anim.Channels, &gltf.Channel{
		Sampler: &sampler,
		Target:  gltf.ChannelTarget{Node: &node, Path: path},
	})
}

func encodeBinary(doc *gltf.Document) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := gltf.NewEncoder(buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrEncode), "encoding glb document")
	}
	return buf.Bytes(), nil
}
