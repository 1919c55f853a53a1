// Package tasks loads batch task definitions from YAML files.
//
// A task named "fastq-to-ubam" lives in <dir>/fastq-to-ubam.yaml. Before
// parsing, every $var and ${var} placeholder in the file is replaced from the
// variables passed to Load. A placeholder without a value is an error rather
// than an empty string, so a job is never launched with a half-filled
// configuration.
package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.TaskStore = (*Store)(nil)

// Store reads task definitions from a directory.
type Store struct {
	dir string
}

// NewStore creates a task store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the task directory.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads the task named name and resolves its placeholders from vars.
func (s *Store) Load(_ context.Context, name string, vars map[string]string) (*domain.TaskConfig, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: task name %q", domain.ErrInvalidInput, name)
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, name+".yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownTask, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading task %s: %w", name, err)
	}

	expanded, err := expand(string(raw), vars)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", name, err)
	}

	var task domain.TaskConfig
	dec := yaml.NewDecoder(bytes.NewBufferString(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&task); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: task %s: %v", domain.ErrInvalidInput, name, err)
	}
	if task.Name == "" {
		task.Name = name
	}
	return &task, nil
}

// expand substitutes placeholders and reports every variable without a value.
func expand(content string, vars map[string]string) (string, error) {
	missing := make(map[string]struct{})
	out := os.Expand(content, func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		missing[key] = struct{}{}
		return ""
	})
	if len(missing) == 0 {
		return out, nil
	}

	names := make([]string, 0, len(missing))
	for k := range missing {
		names = append(names, k)
	}
	sort.Strings(names)
	return "", fmt.Errorf("%w: %s", domain.ErrUnresolvedVariable, strings.Join(names, ", "))
}
