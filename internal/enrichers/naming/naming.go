// Package naming provides metadata functions that parse sequencing attributes
// out of the object's derived name field.
//
// Both functions read the "name" property written by the field extractor,
// e.g. SAMPLE0_0_R1 for SAMPLE0_0_R1.fastq.gz.
package naming

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// Registry names.
const (
	MatePairName  = "mate_pair_from_name_suffix"
	ReadGroupName = "read_group_from_name_segment"
)

// Output property names.
const (
	KeyMatePair  = "matePair"
	KeyReadGroup = "readGroup"
)

const nameKey = "name"

var matePairPattern = regexp.MustCompile(`_R(\d)$`)

// MatePair extracts the mate pair number from a trailing _R<digit>.
type MatePair struct{}

// NewMatePair creates a mate pair function.
func NewMatePair() *MatePair {
	return &MatePair{}
}

// Name returns the function name.
func (f *MatePair) Name() string {
	return MatePairName
}

// Apply returns {matePair: int}. Fails with domain.ErrPatternNotFound when the
// name has no _R<digit> suffix.
func (f *MatePair) Apply(_ context.Context, props domain.PropertySet, _ map[string]string) (map[string]any, error) {
	name, err := objectName(props)
	if err != nil {
		return nil, err
	}

	m := matePairPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("%w: %q has no _R<digit> suffix", domain.ErrPatternNotFound, name)
	}

	// The pattern guarantees a single digit.
	pair, _ := strconv.Atoi(m[1])
	return map[string]any{KeyMatePair: pair}, nil
}

// ReadGroup extracts the read group from the second underscore-separated
// segment of the name.
type ReadGroup struct {
	index int
}

// NewReadGroup creates a read group function reading segment 1.
func NewReadGroup() *ReadGroup {
	return &ReadGroup{index: 1}
}

// Name returns the function name.
func (f *ReadGroup) Name() string {
	return ReadGroupName
}

// Apply returns {readGroup: int}.
func (f *ReadGroup) Apply(_ context.Context, props domain.PropertySet, _ map[string]string) (map[string]any, error) {
	name, err := objectName(props)
	if err != nil {
		return nil, err
	}

	segments := strings.Split(name, "_")
	if f.index >= len(segments) {
		return nil, fmt.Errorf("%w: %q has no segment %d", domain.ErrIndexOutOfRange, name, f.index)
	}

	group, err := strconv.Atoi(segments[f.index])
	if err != nil {
		return nil, fmt.Errorf("%w: segment %q of %q is not an integer", domain.ErrTypeConversion, segments[f.index], name)
	}
	return map[string]any{KeyReadGroup: group}, nil
}

func objectName(props domain.PropertySet) (string, error) {
	name, ok := props.String(nameKey)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrMissingField, nameKey)
	}
	return name, nil
}
