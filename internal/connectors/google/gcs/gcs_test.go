package gcs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trellis/internal/connectors/google"
	"github.com/custodia-labs/trellis/internal/core/domain"
)

// fakeObject is one object held by fakeGCS.
type fakeObject struct {
	content        []byte
	metadata       map[string]string
	metageneration int64
}

// fakeGCS serves the subset of the storage JSON API the client uses.
type fakeGCS struct {
	mu          sync.Mutex
	objects     map[string]*fakeObject
	patches     int
	failures    int
	beforePatch func()
}

func newFakeGCS() *fakeGCS {
	return &fakeGCS{objects: make(map[string]*fakeObject)}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/b/")
	bucket, object, ok := strings.Cut(rest, "/o/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad path")
		return
	}

	if r.Method == http.MethodPatch && f.beforePatch != nil {
		f.beforePatch()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failures > 0 {
		f.failures--
		writeError(w, http.StatusServiceUnavailable, "backend unavailable")
		return
	}

	obj, exists := f.objects[bucket+"/"+object]
	if !exists {
		writeError(w, http.StatusNotFound, "No such object")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("alt") == "media" {
			_, _ = w.Write(obj.content)
			return
		}
	case http.MethodPatch:
		if want := r.URL.Query().Get("ifMetagenerationMatch"); want != "" &&
			want != strconv.FormatInt(obj.metageneration, 10) {
			writeError(w, http.StatusPreconditionFailed, "metageneration mismatch")
			return
		}
		var patch struct {
			Metadata map[string]string `json:"metadata"`
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &patch)
		if obj.metadata == nil {
			obj.metadata = make(map[string]string)
		}
		for k, v := range patch.Metadata {
			obj.metadata[k] = v
		}
		obj.metageneration++
		f.patches++
	default:
		writeError(w, http.StatusMethodNotAllowed, r.Method)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"bucket":         bucket,
		"name":           object,
		"metageneration": strconv.FormatInt(obj.metageneration, 10),
		"metadata":       obj.metadata,
	})
}

func newTestClient(t *testing.T, fake *fakeGCS) *Client {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	opts, err := google.ClientOptions(ctx, "", srv.URL+"/")
	require.NoError(t, err)
	svc, err := google.NewStorageService(ctx, opts...)
	require.NoError(t, err)

	limiter := google.NewRateLimiterWithConfig(google.RateLimitConfig{RequestsPerSecond: 1000, BurstSize: 100})
	limiter.SetBackoff(time.Millisecond)

	c := New(svc, limiter)
	c.newID = func() string { return "new-uuid" }
	return c
}

func TestRead(t *testing.T) {
	fake := newFakeGCS()
	fake.objects["b/dir/checksum.txt"] = &fakeObject{content: []byte("abc\t./FASTQ/a.fastq.gz\n")}
	c := newTestClient(t, fake)

	data, err := c.Read(context.Background(), "b", "dir/checksum.txt")

	require.NoError(t, err)
	assert.Equal(t, "abc\t./FASTQ/a.fastq.gz\n", string(data))
}

func TestRead_NotFound(t *testing.T) {
	c := newTestClient(t, newFakeGCS())

	_, err := c.Read(context.Background(), "b", "missing.json")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "gs://b/missing.json")
}

func TestRead_RetriesServerErrors(t *testing.T) {
	fake := newFakeGCS()
	fake.objects["b/x.json"] = &fakeObject{content: []byte(`{}`)}
	fake.failures = 2
	c := newTestClient(t, fake)

	data, err := c.Read(context.Background(), "b", "x.json")

	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestEnsureIdentifier_Writes(t *testing.T) {
	fake := newFakeGCS()
	fake.objects["b/a.fastq.gz"] = &fakeObject{metageneration: 1}
	c := newTestClient(t, fake)

	id, err := c.EnsureIdentifier(context.Background(), "b", "a.fastq.gz")

	require.NoError(t, err)
	assert.Equal(t, "new-uuid", id)
	assert.Equal(t, "new-uuid", fake.objects["b/a.fastq.gz"].metadata[domain.IdentifierMetadataKey])
	assert.Equal(t, 1, fake.patches)
}

func TestEnsureIdentifier_Existing(t *testing.T) {
	fake := newFakeGCS()
	fake.objects["b/a.fastq.gz"] = &fakeObject{
		metageneration: 3,
		metadata:       map[string]string{"trellis-uuid": "old-uuid"},
	}
	c := newTestClient(t, fake)

	id, err := c.EnsureIdentifier(context.Background(), "b", "a.fastq.gz")

	require.NoError(t, err)
	assert.Equal(t, "old-uuid", id)
	assert.Zero(t, fake.patches)
}

func TestEnsureIdentifier_Race(t *testing.T) {
	fake := newFakeGCS()
	fake.objects["b/a.fastq.gz"] = &fakeObject{metageneration: 1}
	var once sync.Once
	fake.beforePatch = func() {
		once.Do(func() {
			fake.mu.Lock()
			defer fake.mu.Unlock()
			obj := fake.objects["b/a.fastq.gz"]
			obj.metadata = map[string]string{"trellis-uuid": "winner"}
			obj.metageneration = 2
		})
	}
	c := newTestClient(t, fake)

	id, err := c.EnsureIdentifier(context.Background(), "b", "a.fastq.gz")

	require.NoError(t, err)
	assert.Equal(t, "winner", id)
	assert.Zero(t, fake.patches)
}

func TestPatchMetadata(t *testing.T) {
	fake := newFakeGCS()
	fake.objects["b/a.fastq.gz"] = &fakeObject{metadata: map[string]string{"keep": "me"}}
	c := newTestClient(t, fake)

	err := c.PatchMetadata(context.Background(), "b", "a.fastq.gz", map[string]string{"name": "a"})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"keep": "me", "name": "a"}, fake.objects["b/a.fastq.gz"].metadata)
}

func TestPatchMetadata_NotFound(t *testing.T) {
	c := newTestClient(t, newFakeGCS())

	err := c.PatchMetadata(context.Background(), "b", "nope", map[string]string{"a": "b"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
