package convert

import (
	"github.com/gbrlfaria/chaseconv/internal/format/frm"
	"github.com/gbrlfaria/chaseconv/internal/format/gltf"
	"github.com/gbrlfaria/chaseconv/internal/format/p3m"
)

// Formats returns the built-in conversion formats: "gltf" for binary GLTF
// documents and "game" for the P3M model / FRM animation pair.
func Formats() []*Format {
	return []*Format{
		{
			Name:      "gltf",
			Importers: []Importer{gltf.Importer{}},
			Exporters: []Exporter{gltf.Exporter{}},
		},
		{
			Name:      "game",
			Importers: []Importer{p3m.Importer{}, frm.Importer{}},
			Exporters: []Exporter{p3m.Exporter{}, frm.Exporter{}},
		},
	}
}
