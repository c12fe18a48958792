// Package p3m reads and writes the P3M model format: mesh geometry, the
// bone hierarchy, and skinning, in the game's left-handed Y-up coordinate
// system. All fields are little-endian.
package p3m

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/gbrlfaria/chaseconv/internal/errors"
)

// The typo is intentional and follows the string used in the official assets.
const versionHeader = "Perfact 3D Model (Ver 0.5)\x00"

const (
	// invalidBoneIndex marks an empty child slot or an unskinned vertex.
	invalidBoneIndex = 0xFF

	// maxBoneChildren is the fixed child slot count per bone record.
	maxBoneChildren = 10

	// textureNameLen is the fixed size of the unused texture name field.
	textureNameLen = 260

	// MaxBones is the largest representable bone count; index 0xFF is
	// reserved as the empty marker.
	MaxBones = 255
)

// File is the raw content of a P3M file. Mesh and skinning semantics live in
// the importer and exporter; File deals only in the byte layout.
type File struct {
	// VersionHeader is the fixed format signature.
	VersionHeader string
	// PositionBones carry the translations applied to their children angle
	// bones.
	PositionBones []PositionBone
	// AngleBones are the actual joints; skin vertices and animation channels
	// refer to angle-bone indices offset by len(PositionBones).
	AngleBones []AngleBone
	// TextureName is unused by the game and always written empty.
	TextureName string
	// Faces are clockwise-wound triangles.
	Faces [][3]uint16
	// SkinVertices store positions relative to the world bind translation of
	// the influencing joint.
	SkinVertices []SkinVertex
	// MeshVertices store absolute positions; the game ignores them and they
	// are recomputed on export.
	MeshVertices []MeshVertex
}

// PositionBone is a translation applied to a set of children angle bones.
type PositionBone struct {
	Position [3]float32
	Children []uint8
}

// AngleBone is a rotation slot applying to a set of children position bones.
// Its position and scale fields are unused and always zero.
type AngleBone struct {
	Position [3]float32
	Scale    float32
	Children []uint8
}

// SkinVertex is a skinned mesh vertex. Each vertex is influenced by a single
// bone at full weight.
type SkinVertex struct {
	Position [3]float32
	Weight   float32
	// BoneIndex is the influencing angle-bone index plus the position bone
	// count, or invalidBoneIndex for an unskinned vertex.
	BoneIndex uint8
	Normal    [3]float32
	UV        [2]float32
}

// MeshVertex is an unskinned mesh vertex.
type MeshVertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

func readLittle(rd io.Reader, v interface{}) error {
	return binary.Read(rd, binary.LittleEndian, v)
}

func writeLittle(wt io.Writer, v interface{}) {
	// bytes.Buffer writes cannot fail; fixed-size values cannot be rejected.
	binary.Write(wt, binary.LittleEndian, v)
}

func parseErr(err error, what string) error {
	return errors.Wrapf(errors.Mark(err, errors.ErrParse), "reading %s", what)
}

// Unmarshal parses raw P3M bytes. It fails with a parse error on a bad
// signature, truncated input, or child indices outside the bone table, and
// never returns a partially populated file.
func Unmarshal(data []byte) (*File, error) {
	rd := bytes.NewReader(data)
	f := &File{}

	header := make([]byte, len(versionHeader))
	if _, err := io.ReadFull(rd, header); err != nil {
		return nil, parseErr(err, "version header")
	}
	f.VersionHeader = trimNul(header)
	if string(header) != versionHeader {
		return nil, errors.Mark(
			errors.Newf("unexpected signature %q", f.VersionHeader), errors.ErrParse)
	}

	var numPositionBones, numAngleBones uint8
	if err := readLittle(rd, &numPositionBones); err != nil {
		return nil, parseErr(err, "position bone count")
	}
	if err := readLittle(rd, &numAngleBones); err != nil {
		return nil, parseErr(err, "angle bone count")
	}

	for i := 0; i < int(numPositionBones); i++ {
		bone, err := readPositionBone(rd)
		if err != nil {
			return nil, parseErr(err, "position bones")
		}
		for _, child := range bone.Children {
			if child >= numAngleBones {
				return nil, errors.Mark(
					errors.Newf("position bone %d references angle bone %d of %d", i, child, numAngleBones),
					errors.ErrParse)
			}
		}
		f.PositionBones = append(f.PositionBones, bone)
	}
	for i := 0; i < int(numAngleBones); i++ {
		bone, err := readAngleBone(rd)
		if err != nil {
			return nil, parseErr(err, "angle bones")
		}
		for _, child := range bone.Children {
			if child >= numPositionBones {
				return nil, errors.Mark(
					errors.Newf("angle bone %d references position bone %d of %d", i, child, numPositionBones),
					errors.ErrParse)
			}
		}
		f.AngleBones = append(f.AngleBones, bone)
	}

	var numVertices, numFaces uint16
	if err := readLittle(rd, &numVertices); err != nil {
		return nil, parseErr(err, "vertex count")
	}
	if err := readLittle(rd, &numFaces); err != nil {
		return nil, parseErr(err, "face count")
	}

	texture := make([]byte, textureNameLen)
	if _, err := io.ReadFull(rd, texture); err != nil {
		return nil, parseErr(err, "texture name")
	}
	f.TextureName = trimNul(texture)

	for i := 0; i < int(numFaces); i++ {
		var face [3]uint16
		if err := readLittle(rd, &face); err != nil {
			return nil, parseErr(err, "face block")
		}
		f.Faces = append(f.Faces, face)
	}
	for i := 0; i < int(numVertices); i++ {
		vertex, err := readSkinVertex(rd)
		if err != nil {
			return nil, parseErr(err, "skin vertex block")
		}
		f.SkinVertices = append(f.SkinVertices, vertex)
	}
	for i := 0; i < int(numVertices); i++ {
		var vertex MeshVertex
		if err := readLittle(rd, &vertex); err != nil {
			return nil, parseErr(err, "mesh vertex block")
		}
		f.MeshVertices = append(f.MeshVertices, vertex)
	}

	return f, nil
}

// Marshal serializes the file to the exact on-disk layout.
func (f *File) Marshal() ([]byte, error) {
	if len(f.PositionBones) > MaxBones || len(f.AngleBones) > MaxBones {
		return nil, errors.Mark(
			errors.Newf("bone count %d/%d exceeds the format limit %d",
				len(f.PositionBones), len(f.AngleBones), MaxBones),
			errors.ErrEncode)
	}
	if len(f.SkinVertices) != len(f.MeshVertices) {
		return nil, errors.Mark(
			errors.Newf("skin vertex count %d does not match mesh vertex count %d",
				len(f.SkinVertices), len(f.MeshVertices)),
			errors.ErrEncode)
	}
	if len(f.SkinVertices) > 0xFFFF || len(f.Faces) > 0xFFFF {
		return nil, errors.Mark(
			errors.Newf("vertex count %d or face count %d exceeds uint16",
				len(f.SkinVertices), len(f.Faces)),
			errors.ErrEncode)
	}

	buf := &bytes.Buffer{}
	writeFixedString(buf, versionHeader[:len(versionHeader)-1], len(versionHeader))
	writeLittle(buf, uint8(len(f.PositionBones)))
	writeLittle(buf, uint8(len(f.AngleBones)))

	for i := range f.PositionBones {
		if err := writePositionBone(buf, &f.PositionBones[i]); err != nil {
			return nil, err
		}
	}
	for i := range f.AngleBones {
		if err := writeAngleBone(buf, &f.AngleBones[i]); err != nil {
			return nil, err
		}
	}

	writeLittle(buf, uint16(len(f.SkinVertices)))
	writeLittle(buf, uint16(len(f.Faces)))
	writeFixedString(buf, f.TextureName, textureNameLen)

	for _, face := range f.Faces {
		writeLittle(buf, face)
	}
	for i := range f.SkinVertices {
		writeSkinVertex(buf, &f.SkinVertices[i])
	}
	for i := range f.MeshVertices {
		writeLittle(buf, f.MeshVertices[i])
	}

	return buf.Bytes(), nil
}

func readPositionBone(rd io.Reader) (PositionBone, error) {
	bone := PositionBone{}
	if err := readLittle(rd, &bone.Position); err != nil {
		return bone, err
	}
	children, err := readChildren(rd)
	if err != nil {
		return bone, err
	}
	bone.Children = children
	return bone, skipPadding(rd)
}

func writePositionBone(wt io.Writer, bone *PositionBone) error {
	writeLittle(wt, bone.Position)
	if err := writeChildren(wt, bone.Children); err != nil {
		return err
	}
	writePadding(wt)
	return nil
}

func readAngleBone(rd io.Reader) (AngleBone, error) {
	bone := AngleBone{}
	if err := readLittle(rd, &bone.Position); err != nil {
		return bone, err
	}
	if err := readLittle(rd, &bone.Scale); err != nil {
		return bone, err
	}
	children, err := readChildren(rd)
	if err != nil {
		return bone, err
	}
	bone.Children = children
	return bone, skipPadding(rd)
}

func writeAngleBone(wt io.Writer, bone *AngleBone) error {
	writeLittle(wt, bone.Position)
	writeLittle(wt, bone.Scale)
	if err := writeChildren(wt, bone.Children); err != nil {
		return err
	}
	writePadding(wt)
	return nil
}

func readChildren(rd io.Reader) ([]uint8, error) {
	var slots [maxBoneChildren]uint8
	if err := readLittle(rd, &slots); err != nil {
		return nil, err
	}
	var children []uint8
	for _, child := range slots {
		if child != invalidBoneIndex {
			children = append(children, child)
		}
	}
	return children, nil
}

func writeChildren(wt io.Writer, children []uint8) error {
	if len(children) > maxBoneChildren {
		return errors.Mark(
			errors.Newf("bone has %d children; the format allows %d", len(children), maxBoneChildren),
			errors.ErrEncode)
	}
	for slot := 0; slot < maxBoneChildren; slot++ {
		if slot < len(children) {
			writeLittle(wt, children[slot])
		} else {
			writeLittle(wt, uint8(invalidBoneIndex))
		}
	}
	return nil
}

// Bone records end with 2 bytes of struct alignment padding, written 0xFFFF.
func skipPadding(rd io.Reader) error {
	var pad uint16
	return readLittle(rd, &pad)
}

func writePadding(wt io.Writer) {
	writeLittle(wt, uint16(0xFFFF))
}

func readSkinVertex(rd io.Reader) (SkinVertex, error) {
	vertex := SkinVertex{}
	if err := readLittle(rd, &vertex.Position); err != nil {
		return vertex, err
	}
	if err := readLittle(rd, &vertex.Weight); err != nil {
		return vertex, err
	}
	// Four index bytes; only the first carries an influence.
	var indices [4]uint8
	if err := readLittle(rd, &indices); err != nil {
		return vertex, err
	}
	vertex.BoneIndex = indices[0]
	if err := readLittle(rd, &vertex.Normal); err != nil {
		return vertex, err
	}
	return vertex, readLittle(rd, &vertex.UV)
}

func writeSkinVertex(wt io.Writer, vertex *SkinVertex) {
	writeLittle(wt, vertex.Position)
	writeLittle(wt, vertex.Weight)
	writeLittle(wt, vertex.BoneIndex)
	writeLittle(wt, vertex.BoneIndex)
	writeLittle(wt, uint8(invalidBoneIndex))
	writeLittle(wt, uint8(invalidBoneIndex))
	writeLittle(wt, vertex.Normal)
	writeLittle(wt, vertex.UV)
}

func writeFixedString(wt io.Writer, s string, size int) {
	if len(s) > size {
		s = s[:size]
	}
	wt.Write([]byte(s))
	for i := len(s); i < size; i++ {
		writeLittle(wt, uint8(0))
	}
}

func trimNul(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
