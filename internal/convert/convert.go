// Package convert drives whole conversions: it classifies the input files,
// decodes them into one scene, reconciles the animation with the skeleton,
// and writes every output or none at all.
package convert

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gbrlfaria/chaseconv/internal/errors"
	"github.com/gbrlfaria/chaseconv/internal/fileutil"
	"github.com/gbrlfaria/chaseconv/internal/reconcile"
	"github.com/gbrlfaria/chaseconv/internal/scene"
)

// Importer decodes one input file into a scene.
type Importer interface {
	// Extensions lists the file extensions the importer handles, lowercase
	// and without the leading period.
	Extensions() []string
	Import(data []byte, path string, sc *scene.Scene) error
}

// Exporter encodes a scene into one output file.
type Exporter interface {
	// Extension is the produced file extension, without the leading period.
	Extension() string
	// CanExport reports whether the scene carries data for this output.
	CanExport(sc *scene.Scene) bool
	Export(sc *scene.Scene) ([]byte, error)
}

// Format groups the importers and exporters of one conversion target.
type Format struct {
	Name      string
	Importers []Importer
	Exporters []Exporter
}

// Converter runs conversions between the registered formats.
type Converter struct {
	formats []*Format
	log     *slog.Logger
}

// New returns a converter over the given formats. A nil logger falls back to
// slog.Default; an empty format list falls back to Formats.
func New(log *slog.Logger, formats ...*Format) *Converter {
	if log == nil {
		log = slog.Default()
	}
	if len(formats) == 0 {
		formats = Formats()
	}
	return &Converter{formats: formats, log: log}
}

// Target returns the registered format with the given name.
func (c *Converter) Target(name string) (*Format, error) {
	names := make([]string, 0, len(c.formats))
	for _, format := range c.formats {
		if format.Name == name {
			return format, nil
		}
		names = append(names, format.Name)
	}
	return nil, errors.Newf("unknown target format %q, supported: %s", name, strings.Join(names, ", "))
}

// Convert decodes every input, merges them into one model, and writes the
// target format's outputs into outDir. It fails on the first hard error and
// never leaves a partially written output behind. Warnings accompany the
// report and never fail the conversion.
func (c *Converter) Convert(inputs []string, targetName, outDir string) (*Report, error) {
	target, err := c.Target(targetName)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, errors.New("no input files")
	}

	scenes := make([]*scene.Scene, 0, len(inputs))
	for _, path := range inputs {
		sc, err := c.importFile(path)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, sc)
	}

	merged, err := mergeScenes(scenes, inputs)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	report := &Report{}
	var discarded int
	merged.Clip, discarded = reconcile.ResolveTracks(merged.Clip, merged.Skeleton)
	if discarded > 0 {
		c.log.Warn("discarded animation channels without a matching joint", "count", discarded)
		report.Warnings = append(report.Warnings, Warning{ChannelsDiscarded: discarded})
	}

	var outputs []fileutil.FileEntry
	for _, exporter := range target.Exporters {
		if !exporter.CanExport(merged) {
			continue
		}
		data, err := exporter.Export(merged)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, fileutil.FileEntry{
			Path: filepath.Join(outDir, merged.Name+"."+exporter.Extension()),
			Data: data,
		})
	}
	if len(outputs) == 0 {
		return nil, errors.Mark(
			errors.Newf("inputs carry nothing the %q format can represent", target.Name),
			errors.ErrEncode)
	}

	// All outputs land together or not at all.
	if err := fileutil.WriteFileSet(outputs, 0o644); err != nil {
		return nil, err
	}
	for _, out := range outputs {
		c.log.Info("wrote output", "path", out.Path, "bytes", len(out.Data))
		report.Outputs = append(report.Outputs, out.Path)
	}

	return report, nil
}

func (c *Converter) importFile(path string) (*scene.Scene, error) {
	importer, err := c.classify(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.Mark(err, errors.ErrIO), "reading %s", path)
	}

	sc := &scene.Scene{}
	if err := importer.Import(data, path, sc); err != nil {
		return nil, errors.Wrapf(err, "importing %s", path)
	}
	c.log.Debug("imported input", "path", path,
		"mesh", sc.Mesh != nil, "skeleton", sc.Skeleton != nil, "clip", sc.Clip != nil)
	return sc, nil
}

// classify picks the importer for a path by its extension, searching every
// registered format.
func (c *Converter) classify(path string) (Importer, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, format := range c.formats {
		for _, importer := range format.Importers {
			for _, candidate := range importer.Extensions() {
				if candidate == ext {
					return importer, nil
				}
			}
		}
	}
	return nil, errors.Newf("input %q has an unsupported extension %q", path, ext)
}

// mergeScenes folds per-file scenes into the one logical model they must
// describe. Disagreements between the inputs are consistency errors.
func mergeScenes(scenes []*scene.Scene, inputs []string) (*scene.Scene, error) {
	merged := &scene.Scene{}
	for i, sc := range scenes {
		if sc.Mesh != nil {
			if merged.Mesh != nil {
				return nil, consistencyErrf("input %q carries a second mesh", inputs[i])
			}
			merged.Mesh = sc.Mesh
			merged.Name = sc.Name
		}
		if sc.Clip != nil {
			if merged.Clip != nil {
				return nil, consistencyErrf("input %q carries a second animation clip", inputs[i])
			}
			merged.Clip = sc.Clip
		}
		if sc.Skeleton != nil {
			if merged.Skeleton == nil {
				merged.Skeleton = sc.Skeleton
			} else if err := sameSkeleton(merged.Skeleton, sc.Skeleton, inputs[i]); err != nil {
				return nil, err
			}
		}
	}

	// Validation requires a mesh, so an all-animation input set gets an empty
	// placeholder; exporters decide whether such a scene is representable.
	// An animation-only input set keeps the clip's name.
	if merged.Mesh == nil {
		merged.Mesh = &scene.Mesh{}
	}
	if merged.Name == "" && merged.Clip != nil {
		merged.Name = merged.Clip.Name
	}
	if merged.Name == "" {
		merged.Name = fileutil.Stem(inputs[0])
	}

	return merged, nil
}

func sameSkeleton(a, b *scene.Skeleton, input string) error {
	if len(a.Joints) != len(b.Joints) {
		return consistencyErrf("input %q has a %d-joint skeleton, previous inputs have %d joints",
			input, len(b.Joints), len(a.Joints))
	}
	for i := range a.Joints {
		if a.Joints[i].Name != b.Joints[i].Name {
			return consistencyErrf("input %q names joint %d %q, previous inputs name it %q",
				input, i, b.Joints[i].Name, a.Joints[i].Name)
		}
		if a.Joints[i].Parent != b.Joints[i].Parent {
			return consistencyErrf("input %q parents joint %q differently", input, a.Joints[i].Name)
		}
	}
	return nil
}

func consistencyErrf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), errors.ErrConsistency)
}
