// Package taxonomy models the label hierarchy used to collapse overlapping
// label matches to their most specific members.
//
// The tree is stored as an arena: nodes are addressed by index and refer to
// their parent by index. The root is a structural placeholder and never
// carries a label.
package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// noParent marks the root node.
const noParent = -1

// TreeNode is the serialised form of a taxonomy, one object per label.
type TreeNode struct {
	Name     string     `json:"name"`
	Children []TreeNode `json:"children,omitempty"`
}

type node struct {
	name   string
	parent int
	// path holds the node indexes from the root to this node, inclusive.
	path []int
}

// Taxonomy is an immutable label tree. It is safe for concurrent reads.
type Taxonomy struct {
	nodes []node
	index map[string]int
}

// New builds a taxonomy from its root. Label names must be unique.
func New(root TreeNode) (*Taxonomy, error) {
	t := &Taxonomy{index: make(map[string]int)}
	if err := t.add(root, noParent); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Taxonomy) add(tn TreeNode, parent int) error {
	if parent != noParent {
		if tn.Name == "" {
			return fmt.Errorf("%w: unnamed node under %s", domain.ErrInvalidTaxonomy, t.nodes[parent].name)
		}
		if _, dup := t.index[tn.Name]; dup {
			return fmt.Errorf("%w: duplicate label %s", domain.ErrInvalidTaxonomy, tn.Name)
		}
	}

	id := len(t.nodes)
	n := node{name: tn.Name, parent: parent}
	if parent != noParent {
		n.path = append(append(make([]int, 0, len(t.nodes[parent].path)+1), t.nodes[parent].path...), id)
		t.index[tn.Name] = id
	} else {
		n.path = []int{id}
	}
	t.nodes = append(t.nodes, n)

	for _, child := range tn.Children {
		if err := t.add(child, id); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether label is a node of the taxonomy.
func (t *Taxonomy) Has(label string) bool {
	_, ok := t.index[label]
	return ok
}

// Require returns domain.ErrUnknownLabel naming the first label that is not
// part of the taxonomy.
func (t *Taxonomy) Require(labels ...string) error {
	for _, l := range labels {
		if !t.Has(l) {
			return fmt.Errorf("%w: %s", domain.ErrUnknownLabel, l)
		}
	}
	return nil
}

// Path returns the label names from the first level below the root down to
// label, inclusive.
func (t *Taxonomy) Path(label string) ([]string, error) {
	id, ok := t.index[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownLabel, label)
	}
	path := t.nodes[id].path[1:]
	names := make([]string, len(path))
	for i, idx := range path {
		names[i] = t.nodes[idx].name
	}
	return names, nil
}

// Ancestors returns the strict ancestors of label, nearest first. The root
// and the label itself are excluded.
func (t *Taxonomy) Ancestors(label string) ([]string, error) {
	id, ok := t.index[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownLabel, label)
	}

	var out []string
	for p := t.nodes[id].parent; p != noParent && t.nodes[p].parent != noParent; p = t.nodes[p].parent {
		out = append(out, t.nodes[p].name)
	}
	return out, nil
}

// ResolveLeafLabels drops every matched label that is a strict ancestor of
// another matched label. The remaining labels keep their input order.
func (t *Taxonomy) ResolveLeafLabels(matched []string) ([]string, error) {
	ancestors := make(map[string]bool)
	for _, label := range matched {
		anc, err := t.Ancestors(label)
		if err != nil {
			return nil, err
		}
		for _, a := range anc {
			ancestors[a] = true
		}
	}

	leaves := make([]string, 0, len(matched))
	seen := make(map[string]bool, len(matched))
	for _, label := range matched {
		if ancestors[label] || seen[label] {
			continue
		}
		seen[label] = true
		leaves = append(leaves, label)
	}
	return leaves, nil
}

// Tree returns the serialised form of the taxonomy.
func (t *Taxonomy) Tree() TreeNode {
	return t.tree(0)
}

func (t *Taxonomy) tree(id int) TreeNode {
	tn := TreeNode{Name: t.nodes[id].name}
	for i := id + 1; i < len(t.nodes); i++ {
		if t.nodes[i].parent == id {
			tn.Children = append(tn.Children, t.tree(i))
		}
	}
	return tn
}

// Default returns the built-in taxonomy: every sample file kind is a Blob.
func Default() *Taxonomy {
	t, err := New(TreeNode{
		Name: "root",
		Children: []TreeNode{
			{
				Name: "Blob",
				Children: []TreeNode{
					{Name: "Fastq"},
					{Name: "Microarray"},
					{Name: "PersonalisSequencing"},
					{Name: "Checksum"},
					{Name: domain.LogLabel},
				},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return t
}

// LoadFile reads a JSON taxonomy tree.
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}

	var root TreeNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", domain.ErrInvalidTaxonomy, path, err)
	}
	return New(root)
}
