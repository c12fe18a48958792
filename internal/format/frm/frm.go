// Package frm reads and writes the FRM keyframe animation format. Frames are
// sampled at a fixed 55 FPS; all fields are little-endian.
package frm

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/gbrlfaria/chaseconv/internal/errors"
	"github.com/gbrlfaria/chaseconv/internal/mathutil"
)

// versionHeader opens v1.1 files. v1.0 files have no header at all.
const versionHeader = "Frm Ver 1.1\x00"

// Version selects the on-disk layout.
type Version int

const (
	// V1_0 is the legacy layout: u8 counts and no Z translation block.
	V1_0 Version = iota
	// V1_1 adds the version header, u16 counts, and a trailing block of
	// per-frame Z translation deltas.
	V1_1
)

// File is the raw content of an FRM file.
type File struct {
	Version Version
	Frames  []Frame
	// PosZ holds one Z translation delta per frame. Only v1.1 stores it.
	PosZ []float32
}

// Frame is a single keyframe: the skeleton translation for the frame plus
// one rotation matrix per animation channel. XDelta accumulates frame over
// frame while Y is absolute.
type Frame struct {
	// Option is unused and always zero.
	Option uint8
	XDelta float32
	PosY   float32
	// Rotations holds the channel rotation matrices in channel order.
	Rotations []mathutil.Mat4
}

// ChannelCount returns the number of rotation channels per frame.
func (f *File) ChannelCount() int {
	if len(f.Frames) == 0 {
		return 0
	}
	return len(f.Frames[0].Rotations)
}

func parseErr(err error, what string) error {
	return errors.Wrapf(errors.Mark(err, errors.ErrParse), "reading %s", what)
}

// Unmarshal parses raw FRM bytes, sniffing the version from the header.
func Unmarshal(data []byte) (*File, error) {
	if len(data) >= len(versionHeader) && string(data[:len(versionHeader)]) == versionHeader {
		return unmarshalV11(data[len(versionHeader):])
	}
	return unmarshalV10(data)
}

func unmarshalV10(data []byte) (*File, error) {
	rd := bytes.NewReader(data)
	f := &File{Version: V1_0}

	var numFrames, numChannels uint8
	if err := binary.Read(rd, binary.LittleEndian, &numFrames); err != nil {
		return nil, parseErr(err, "frame count")
	}
	if err := binary.Read(rd, binary.LittleEndian, &numChannels); err != nil {
		return nil, parseErr(err, "channel count")
	}

	for i := 0; i < int(numFrames); i++ {
		frame, err := readFrame(rd, int(numChannels))
		if err != nil {
			return nil, parseErr(err, "frame block")
		}
		f.Frames = append(f.Frames, frame)
	}
	f.PosZ = make([]float32, numFrames)

	return f, nil
}

func unmarshalV11(data []byte) (*File, error) {
	rd := bytes.NewReader(data)
	f := &File{Version: V1_1}

	var numFrames, numChannels uint16
	if err := binary.Read(rd, binary.LittleEndian, &numFrames); err != nil {
		return nil, parseErr(err, "frame count")
	}
	if err := binary.Read(rd, binary.LittleEndian, &numChannels); err != nil {
		return nil, parseErr(err, "channel count")
	}

	for i := 0; i < int(numFrames); i++ {
		frame, err := readFrame(rd, int(numChannels))
		if err != nil {
			return nil, parseErr(err, "frame block")
		}
		f.Frames = append(f.Frames, frame)
	}
	f.PosZ = make([]float32, numFrames)
	if err := binary.Read(rd, binary.LittleEndian, f.PosZ); err != nil {
		return nil, parseErr(err, "z translation block")
	}

	return f, nil
}

func readFrame(rd io.Reader, numChannels int) (Frame, error) {
	frame := Frame{}
	if err := binary.Read(rd, binary.LittleEndian, &frame.Option); err != nil {
		return frame, err
	}
	if err := binary.Read(rd, binary.LittleEndian, &frame.XDelta); err != nil {
		return frame, err
	}
	if err := binary.Read(rd, binary.LittleEndian, &frame.PosY); err != nil {
		return frame, err
	}
	for c := 0; c < numChannels; c++ {
		var m mathutil.Mat4
		if err := binary.Read(rd, binary.LittleEndian, &m); err != nil {
			return frame, err
		}
		frame.Rotations = append(frame.Rotations, m)
	}
	return frame, nil
}

// Marshal serializes the file. Frame and channel counts must fit the chosen
// version's field widths, and every frame must carry the same channel count.
func (f *File) Marshal() ([]byte, error) {
	channels := f.ChannelCount()
	for i := range f.Frames {
		if len(f.Frames[i].Rotations) != channels {
			return nil, errors.Mark(
				errors.Newf("frame %d has %d channels, want %d", i, len(f.Frames[i].Rotations), channels),
				errors.ErrEncode)
		}
	}

	limit := 0xFFFF
	if f.Version == V1_0 {
		limit = 0xFF
	}
	if len(f.Frames) > limit || channels > limit {
		return nil, errors.Mark(
			errors.Newf("frame count %d or channel count %d exceeds the format limit %d",
				len(f.Frames), channels, limit),
			errors.ErrEncode)
	}

	buf := &bytes.Buffer{}
	if f.Version == V1_1 {
		buf.WriteString(versionHeader)
		binary.Write(buf, binary.LittleEndian, uint16(len(f.Frames)))
		binary.Write(buf, binary.LittleEndian, uint16(channels))
	} else {
		binary.Write(buf, binary.LittleEndian, uint8(len(f.Frames)))
		binary.Write(buf, binary.LittleEndian, uint8(channels))
	}

	for i := range f.Frames {
		frame := &f.Frames[i]
		binary.Write(buf, binary.LittleEndian, frame.Option)
		binary.Write(buf, binary.LittleEndian, frame.XDelta)
		binary.Write(buf, binary.LittleEndian, frame.PosY)
		for _, m := range frame.Rotations {
			binary.Write(buf, binary.LittleEndian, m)
		}
	}

	if f.Version == V1_1 {
		if len(f.PosZ) != len(f.Frames) {
			return nil, errors.Mark(
				errors.Newf("z block has %d entries, want one per frame (%d)", len(f.PosZ), len(f.Frames)),
				errors.ErrEncode)
		}
		binary.Write(buf, binary.LittleEndian, f.PosZ)
	}

	return buf.Bytes(), nil
}
