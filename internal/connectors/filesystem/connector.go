// Package filesystem serves a local directory as a storage bucket. It emits
// object create events through fsnotify, reads object content from disk and
// keeps custom object metadata in memory.
//
// Writing metadata re-delivers the object's event, the way a metadata update
// re-triggers the storage notification in the cloud deployment.
package filesystem

import (
	"context"
	"crypto/md5" //nolint:gosec // G501: md5Hash mirrors the storage object field.
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
	"github.com/custodia-labs/trellis/internal/logger"
)

// Ensure Connector implements the interfaces.
var (
	_ driven.BlobContentReader  = (*Connector)(nil)
	_ driven.BlobMetadataWriter = (*Connector)(nil)
	_ driven.ObjectWatcher      = (*Connector)(nil)
)

// objectKind is the kind reported on every event.
const objectKind = "storage#object"

// eventBuffer is the capacity of the event channel returned by Watch.
const eventBuffer = 64

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Connector is a local directory exposed as the bucket named bucket.
type Connector struct {
	bucket   string
	rootPath string
	newID    func() string

	mu       sync.Mutex
	metadata map[string]map[string]string
	events   chan domain.ObjectEvent
	watcher  *fsnotify.Watcher
	closed   bool
}

// New creates a connector for the directory rootPath.
func New(bucket, rootPath string) *Connector {
	return &Connector{
		bucket:   bucket,
		rootPath: rootPath,
		newID:    uuid.NewString,
		metadata: make(map[string]map[string]string),
	}
}

// Bucket returns the bucket name the directory stands in for.
func (c *Connector) Bucket() string {
	return c.bucket
}

// Read returns the content of the file at path.
func (c *Connector) Read(_ context.Context, bucket, path string) ([]byte, error) {
	full, err := c.resolve(bucket, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return data, err
}

// EnsureIdentifier assigns a trellis-uuid to the object unless it has one.
// A new identifier re-delivers the object's event.
func (c *Connector) EnsureIdentifier(_ context.Context, bucket, path string) (string, error) {
	if _, err := c.stat(bucket, path); err != nil {
		return "", err
	}

	c.mu.Lock()
	md := c.metadata[path]
	existing := domain.ObjectEvent{Metadata: md}
	if id := existing.Identifier(); id != "" {
		c.mu.Unlock()
		return id, nil
	}
	if md == nil {
		md = make(map[string]string)
		c.metadata[path] = md
	}
	id := c.newID()
	md[domain.IdentifierMetadataKey] = id
	c.mu.Unlock()

	c.redeliver(path)
	return id, nil
}

// PatchMetadata merges fields into the object's metadata and re-delivers
// its event.
func (c *Connector) PatchMetadata(_ context.Context, bucket, path string, fields map[string]string) error {
	if _, err := c.stat(bucket, path); err != nil {
		return err
	}

	c.mu.Lock()
	md := c.metadata[path]
	if md == nil {
		md = make(map[string]string)
		c.metadata[path] = md
	}
	for k, v := range fields {
		md[k] = v
	}
	c.mu.Unlock()

	c.redeliver(path)
	return nil
}

// Event builds the storage event for the object at path, relative to the root.
func (c *Connector) Event(path string) (domain.ObjectEvent, error) {
	info, err := c.stat(c.bucket, path)
	if err != nil {
		return domain.ObjectEvent{}, err
	}

	data, err := os.ReadFile(filepath.Join(c.rootPath, filepath.FromSlash(path)))
	if err != nil {
		return domain.ObjectEvent{}, fmt.Errorf("read %s: %w", path, err)
	}
	sum := md5.Sum(data) //nolint:gosec // G401: content hash, not a security control.
	crc := make([]byte, 4)
	binary.BigEndian.PutUint32(crc, crc32.Checksum(data, castagnoli))

	modified := info.ModTime().UTC()
	generation := strconv.FormatInt(modified.UnixNano(), 10)

	c.mu.Lock()
	var md map[string]string
	if stored := c.metadata[path]; len(stored) > 0 {
		md = make(map[string]string, len(stored))
		for k, v := range stored {
			md[k] = v
		}
	}
	c.mu.Unlock()

	return domain.ObjectEvent{
		Kind:           objectKind,
		ID:             c.bucket + "/" + path + "/" + generation,
		Name:           path,
		Bucket:         c.bucket,
		Generation:     generation,
		Metageneration: "1",
		ContentType:    mime.TypeByExtension(filepath.Ext(path)),
		StorageClass:   "STANDARD",
		Size:           strconv.FormatInt(info.Size(), 10),
		MD5Hash:        base64.StdEncoding.EncodeToString(sum[:]),
		CRC32C:         base64.StdEncoding.EncodeToString(crc),
		TimeCreated:    modified.Format(time.RFC3339Nano),
		Updated:        modified.Format(time.RFC3339Nano),
		Metadata:       md,
	}, nil
}

// Watch watches the root directory tree and emits an event for every file
// created or written.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.ObjectEvent, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errors.New("connector is closed")
	}
	c.mu.Unlock()

	if info, err := os.Stat(c.rootPath); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", c.rootPath)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := c.addTree(watcher, c.rootPath); err != nil {
		watcher.Close()
		return nil, err
	}

	events := make(chan domain.ObjectEvent, eventBuffer)
	c.mu.Lock()
	c.watcher = watcher
	c.events = events
	c.mu.Unlock()

	go c.loop(ctx, watcher, events)
	return events, nil
}

func (c *Connector) loop(ctx context.Context, watcher *fsnotify.Watcher, events chan domain.ObjectEvent) {
	defer func() {
		c.mu.Lock()
		c.events = nil
		c.mu.Unlock()
		close(events)
		watcher.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !isHidden(ev.Name) {
					if err := c.addTree(watcher, ev.Name); err != nil {
						logger.Warn("failed to watch %s: %v", ev.Name, err)
					}
					c.emitTree(ctx, ev.Name, events)
					continue
				}
			}
			if event := c.handleFsEvent(ev); event != nil {
				select {
				case events <- *event:
				case <-ctx.Done():
					return
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleFsEvent converts a file create or write into an object event.
// Directories, hidden files, removals and permission changes yield nil.
func (c *Connector) handleFsEvent(ev fsnotify.Event) *domain.ObjectEvent {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return nil
	}
	if isHidden(ev.Name) {
		return nil
	}
	info, err := os.Stat(ev.Name)
	if err != nil || info.IsDir() {
		return nil
	}

	rel, err := c.relative(ev.Name)
	if err != nil {
		return nil
	}
	event, err := c.Event(rel)
	if err != nil {
		logger.Debug("skipping %s: %v", ev.Name, err)
		return nil
	}
	return &event
}

// emitTree emits events for files already present in a newly created directory.
func (c *Connector) emitTree(ctx context.Context, dir string, events chan<- domain.ObjectEvent) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if event := c.handleFsEvent(fsnotify.Event{Name: path, Op: fsnotify.Create}); event != nil {
			select {
			case events <- *event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
}

// redeliver re-emits the event for path while a watch is running. The send
// never blocks; a full buffer drops the re-delivery.
func (c *Connector) redeliver(path string) {
	c.mu.Lock()
	watching := c.events != nil
	c.mu.Unlock()
	if !watching {
		return
	}

	event, err := c.Event(path)
	if err != nil {
		logger.Warn("failed to re-deliver %s: %v", path, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events == nil {
		return
	}
	select {
	case c.events <- event:
	default:
		logger.Warn("event buffer full, dropping re-delivery of %s", path)
	}
}

// Close stops any running watch.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.watcher != nil {
		err := c.watcher.Close()
		c.watcher = nil
		return err
	}
	return nil
}

func (c *Connector) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && isHidden(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (c *Connector) resolve(bucket, path string) (string, error) {
	if bucket != c.bucket {
		return "", fmt.Errorf("%w: bucket %s", domain.ErrNotFound, bucket)
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if path == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: object path %q", domain.ErrInvalidInput, path)
	}
	return filepath.Join(c.rootPath, clean), nil
}

func (c *Connector) stat(bucket, path string) (fs.FileInfo, error) {
	full, err := c.resolve(bucket, path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	return info, err
}

func (c *Connector) relative(name string) (string, error) {
	rel, err := filepath.Rel(c.rootPath, name)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// isHidden reports whether the base name starts with a dot.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
