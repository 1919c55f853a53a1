package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// mockReader serves fixed content keyed by bucket/path.
type mockReader struct {
	objects map[string][]byte
	err     error
	calls   int
}

func (m *mockReader) Read(_ context.Context, bucket, path string) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.objects[bucket+"/"+path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func objectProps(path string) domain.PropertySet {
	return domain.PropertySet{"bucket": "b", "path": path}
}

func TestCountManifest(t *testing.T) {
	fastq, microarray := CountManifest("abc123\t./FASTQ/s1.fastq.gz\ndef456\t./Microarray/a.txt\n")
	assert.Equal(t, 1, fastq)
	assert.Equal(t, 1, microarray)
}

func TestCountManifest_IgnoresOtherLines(t *testing.T) {
	text := "a1\t./FASTQ/s1.fastq.gz\n" +
		"a2\t\t./FASTQ/s2.fastq.gz\n" +
		"a3\t./FASTQ/s3.txt\n" +
		"a4\t./Other/x\n" +
		"a5 ./Microarray/y\n" +
		"garbage\n" +
		"a6\t./Microarray/z.idat\n\n\n"

	fastq, microarray := CountManifest(text)
	assert.Equal(t, 2, fastq)
	assert.Equal(t, 1, microarray)
}

func TestCountManifest_Empty(t *testing.T) {
	fastq, microarray := CountManifest("")
	assert.Zero(t, fastq)
	assert.Zero(t, microarray)
}

func TestChecksum_Apply(t *testing.T) {
	reader := &mockReader{objects: map[string][]byte{
		"b/p/checksum.txt": []byte("abc123\t./FASTQ/s1.fastq.gz\ndef456\t./Microarray/a.txt\n"),
	}}
	f := NewChecksum(reader)

	out, err := f.Apply(context.Background(), objectProps("p/checksum.txt"), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{KeyFastqCount: 1, KeyMicroarrayCount: 1}, out)
	assert.Equal(t, ChecksumName, f.Name())
}

func TestChecksum_ReadError(t *testing.T) {
	cause := errors.New("connection reset")
	f := NewChecksum(&mockReader{err: cause})

	_, err := f.Apply(context.Background(), objectProps("p/checksum.txt"), nil)
	assert.ErrorIs(t, err, cause)
	assert.False(t, domain.IsPermanent(err))
}

func TestChecksum_DeletedObject(t *testing.T) {
	f := NewChecksum(&mockReader{})

	_, err := f.Apply(context.Background(), objectProps("p/checksum.txt"), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, domain.IsPermanent(err))
}

func TestJSON_Apply(t *testing.T) {
	reader := &mockReader{objects: map[string][]byte{
		"b/s.json": []byte(`{"sampleId":"S0","lanes":4,"ratio":0.5,"passed":true,"none":null,"qc":{"ok":true},"tags":["a","b"]}`),
	}}
	f := NewJSON(reader)

	out, err := f.Apply(context.Background(), objectProps("s.json"), nil)
	require.NoError(t, err)

	assert.Equal(t, "S0", out["sampleId"])
	assert.Equal(t, int64(4), out["lanes"])
	assert.Equal(t, 0.5, out["ratio"])
	assert.Equal(t, true, out["passed"])
	assert.Equal(t, "", out["none"])
	assert.Equal(t, `{"ok":true}`, out["qc"])
	assert.Equal(t, `["a","b"]`, out["tags"])

	props := domain.PropertySet(out)
	assert.NoError(t, props.Finalize())
}

func TestJSON_Errors(t *testing.T) {
	reader := &mockReader{objects: map[string][]byte{
		"b/array.json":  []byte(`[1,2,3]`),
		"b/broken.json": []byte(`{"a":`),
	}}
	f := NewJSON(reader)

	t.Run("not an object", func(t *testing.T) {
		_, err := f.Apply(context.Background(), objectProps("array.json"), nil)
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := f.Apply(context.Background(), objectProps("broken.json"), nil)
		assert.ErrorIs(t, err, domain.ErrMalformedInput)
	})

	t.Run("missing object", func(t *testing.T) {
		_, err := f.Apply(context.Background(), objectProps("none.json"), nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("missing path property", func(t *testing.T) {
		_, err := f.Apply(context.Background(), domain.PropertySet{"bucket": "b"}, nil)
		assert.ErrorIs(t, err, domain.ErrMissingField)
	})
}
