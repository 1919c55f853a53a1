// Package content provides metadata functions that read the object's bytes
// through a BlobContentReader.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
)

// Registry names.
const (
	JSONName     = "read_json_content"
	ChecksumName = "read_checksum_manifest"
)

// Output property names of the checksum manifest function.
const (
	KeyFastqCount      = "fastqCount"
	KeyMicroarrayCount = "microarrayCount"
)

var (
	fastqLine      = regexp.MustCompile(`^(?:(?P<checksum>\w+)\t+./FASTQ/(?P<basename>.*\.fastq\.gz))$`)
	microarrayLine = regexp.MustCompile(`^(?:(?P<checksum>\w+)\t+./Microarray/(?P<basename>.*))$`)
)

// read fetches the object named by the bucket and path properties.
func read(ctx context.Context, reader driven.BlobContentReader, props domain.PropertySet) ([]byte, error) {
	bucket, ok := props.String("bucket")
	if !ok {
		return nil, fmt.Errorf("%w: bucket", domain.ErrMissingField)
	}
	path, ok := props.String("path")
	if !ok {
		return nil, fmt.Errorf("%w: path", domain.ErrMissingField)
	}
	data, err := reader.Read(ctx, bucket, path)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucket, path, err)
	}
	return data, nil
}

// JSON merges the top-level fields of a JSON object into the property set.
// Nested objects and arrays are stored as JSON text.
type JSON struct {
	reader driven.BlobContentReader
}

// NewJSON creates a JSON content function.
func NewJSON(reader driven.BlobContentReader) *JSON {
	return &JSON{reader: reader}
}

// Name returns the function name.
func (f *JSON) Name() string {
	return JSONName
}

// Apply reads and decodes the object. Content that is not a JSON object fails
// with domain.ErrMalformedInput.
func (f *JSON) Apply(ctx context.Context, props domain.PropertySet, _ map[string]string) (map[string]any, error) {
	data, err := read(ctx, f.reader, props)
	if err != nil {
		return nil, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: content is not a JSON object: %w", domain.ErrMalformedInput, err)
	}

	out := make(map[string]any, len(raw))
	for k, v := range raw {
		scalar, err := domain.Scalar(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = scalar
	}
	return out, nil
}

// Checksum counts the FASTQ and microarray entries of a checksum manifest.
// Each line is "<checksum>\t<relative path>"; other lines are ignored.
type Checksum struct {
	reader driven.BlobContentReader
}

// NewChecksum creates a checksum manifest function.
func NewChecksum(reader driven.BlobContentReader) *Checksum {
	return &Checksum{reader: reader}
}

// Name returns the function name.
func (f *Checksum) Name() string {
	return ChecksumName
}

// Apply returns {fastqCount: int, microarrayCount: int}.
func (f *Checksum) Apply(ctx context.Context, props domain.PropertySet, _ map[string]string) (map[string]any, error) {
	data, err := read(ctx, f.reader, props)
	if err != nil {
		return nil, err
	}

	fastq, microarray := CountManifest(string(data))
	return map[string]any{
		KeyFastqCount:      fastq,
		KeyMicroarrayCount: microarray,
	}, nil
}

// CountManifest counts FASTQ and microarray lines in manifest text.
// Per-file checksums are not recorded.
func CountManifest(text string) (fastq, microarray int) {
	for _, line := range strings.Split(strings.TrimRight(text, " \t\r\n"), "\n") {
		if fastqLine.MatchString(line) {
			fastq++
		}
		if microarrayLine.MatchString(line) {
			microarray++
		}
	}
	return fastq, microarray
}
