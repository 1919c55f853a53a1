package labels

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// Definition declares one label: the path patterns that assign it and the
// metadata functions run when it matches.
type Definition struct {
	Name      string   `toml:"name"`
	Patterns  []string `toml:"patterns"`
	Functions []string `toml:"functions"`

	// Groups lists the capture groups copied by the groupdict function.
	Groups []string `toml:"groups,omitempty"`
}

// File is the on-disk layout of a label registry file.
//
//	[[labels]]
//	name = "Fastq"
//	patterns = ['va_mvp_phase2/(?P<plate>\w+)/(?P<sample>\w+)/FASTQ/.*\.fastq\.gz']
//	functions = ["groupdict", "mate_pair_from_name_suffix"]
//	groups = ["plate", "sample"]
type File struct {
	Labels []Definition `toml:"labels"`
}

// sampleGroups are the capture groups of the sample-directory patterns.
var sampleGroups = []string{"plate", "sample"}

// DefaultDefinitions returns the built-in registry for the phase 2
// sequencing bucket layout. Order is significant for property merging.
func DefaultDefinitions() []Definition {
	const sampleDir = `va_mvp_phase2/(?P<plate>\w+)/(?P<sample>\w+)/`

	return []Definition{
		{
			Name:     "Blob",
			Patterns: []string{sampleDir + `.*`},
		},
		{
			Name:      "Fastq",
			Patterns:  []string{sampleDir + `FASTQ/.*\.fastq\.gz`},
			Functions: []string{"groupdict", "mate_pair_from_name_suffix", "read_group_from_name_segment"},
			Groups:    sampleGroups,
		},
		{
			Name:      "Microarray",
			Patterns:  []string{sampleDir + `Microarray/.*`},
			Functions: []string{"groupdict"},
			Groups:    sampleGroups,
		},
		{
			Name:      "PersonalisSequencing",
			Patterns:  []string{sampleDir + `.*\.json`},
			Functions: []string{"groupdict", "read_json_content"},
			Groups:    sampleGroups,
		},
		{
			Name:      "Checksum",
			Patterns:  []string{sampleDir + `.*checksum\.txt`},
			Functions: []string{"groupdict", "read_checksum_manifest"},
			Groups:    sampleGroups,
		},
		{
			Name:     domain.LogLabel,
			Patterns: []string{`.*\.log`, `.*/stderr`, `.*/stdout`},
		},
	}
}

// LoadFile reads label definitions from a TOML registry file.
func LoadFile(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading label registry: %w", err)
	}

	var file File
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parsing label registry %s: %w", domain.ErrInvalidInput, path, err)
	}
	if len(file.Labels) == 0 {
		return nil, fmt.Errorf("%w: label registry %s declares no labels", domain.ErrInvalidInput, path)
	}
	return file.Labels, nil
}
