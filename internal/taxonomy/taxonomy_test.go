package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

func deepTree(t *testing.T) *Taxonomy {
	t.Helper()
	tax, err := New(TreeNode{
		Name: "root",
		Children: []TreeNode{
			{Name: "Blob", Children: []TreeNode{
				{Name: "Sequencing", Children: []TreeNode{
					{Name: "Fastq"},
					{Name: "Bam"},
				}},
				{Name: "Log"},
			}},
			{Name: "Job"},
		},
	})
	require.NoError(t, err)
	return tax
}

func TestAncestors(t *testing.T) {
	tax := deepTree(t)

	anc, err := tax.Ancestors("Fastq")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sequencing", "Blob"}, anc)

	anc, err = tax.Ancestors("Blob")
	require.NoError(t, err)
	assert.Empty(t, anc, "root is never an ancestor")

	_, err = tax.Ancestors("Vcf")
	assert.ErrorIs(t, err, domain.ErrUnknownLabel)
}

func TestPath(t *testing.T) {
	path, err := deepTree(t).Path("Bam")
	require.NoError(t, err)
	assert.Equal(t, []string{"Blob", "Sequencing", "Bam"}, path)
}

func TestResolveLeafLabels(t *testing.T) {
	tax := deepTree(t)

	tests := []struct {
		name    string
		matched []string
		want    []string
	}{
		{"single label", []string{"Fastq"}, []string{"Fastq"}},
		{"ancestor dropped", []string{"Blob", "Fastq"}, []string{"Fastq"}},
		{"all ancestors dropped", []string{"Blob", "Sequencing", "Fastq"}, []string{"Fastq"}},
		{"siblings kept in order", []string{"Blob", "Fastq", "Bam"}, []string{"Fastq", "Bam"}},
		{"unrelated kept", []string{"Job", "Blob"}, []string{"Job", "Blob"}},
		{"log alongside blob", []string{"Blob", "Log"}, []string{"Log"}},
		{"duplicates collapsed", []string{"Fastq", "Fastq"}, []string{"Fastq"}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tax.ResolveLeafLabels(tt.matched)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveLeafLabels_UnknownLabel(t *testing.T) {
	_, err := deepTree(t).ResolveLeafLabels([]string{"Blob", "Vcf"})
	assert.ErrorIs(t, err, domain.ErrUnknownLabel)
}

func TestNew_Invalid(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		_, err := New(TreeNode{Name: "root", Children: []TreeNode{
			{Name: "A", Children: []TreeNode{{Name: "B"}}},
			{Name: "B"},
		}})
		assert.ErrorIs(t, err, domain.ErrInvalidTaxonomy)
	})

	t.Run("unnamed", func(t *testing.T) {
		_, err := New(TreeNode{Name: "root", Children: []TreeNode{{}}})
		assert.ErrorIs(t, err, domain.ErrInvalidTaxonomy)
	})
}

func TestRequire(t *testing.T) {
	tax := Default()
	assert.NoError(t, tax.Require("Blob", "Fastq", "Checksum", "Log"))
	assert.ErrorIs(t, tax.Require("Fastq", "root"), domain.ErrUnknownLabel)
}

func TestDefault_FastqUnderBlob(t *testing.T) {
	leaves, err := Default().ResolveLeafLabels([]string{"Blob", "Fastq"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Fastq"}, leaves)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taxonomy.json")
	data := `{"name":"root","children":[{"name":"Blob","children":[{"name":"Vcf"}]}]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	tax, err := LoadFile(path)
	require.NoError(t, err)

	anc, err := tax.Ancestors("Vcf")
	require.NoError(t, err)
	assert.Equal(t, []string{"Blob"}, anc)

	tree := tax.Tree()
	assert.Equal(t, "root", tree.Name)
	require.Len(t, tree.Children, 1)
	assert.Equal(t, "Vcf", tree.Children[0].Children[0].Name)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name":`), 0o600))

	_, err := LoadFile(bad)
	assert.ErrorIs(t, err, domain.ErrInvalidTaxonomy)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
