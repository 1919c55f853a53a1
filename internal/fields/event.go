package fields

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// Event-derived property names.
const (
	KeySize             = "size"
	KeyCRC32C           = "crc32c"
	KeyMetadata         = "metadata"
	KeyTrellisUUID      = "trellisUuid"
	KeyTriggerOperation = "triggerOperation"
)

// EventProperties copies the scalar fields of a storage event into a new
// property set. The size is converted to an integer, custom metadata is
// stringified and the object identifier is stored as trellisUuid.
// Returns domain.ErrMissingField if name or bucket is absent.
func EventProperties(event *domain.ObjectEvent) (domain.PropertySet, error) {
	if event.Name == "" {
		return nil, fmt.Errorf("%w: name", domain.ErrMissingField)
	}
	if event.Bucket == "" {
		return nil, fmt.Errorf("%w: bucket", domain.ErrMissingField)
	}

	props := domain.NewPropertySet()
	optional := map[string]string{
		"kind":                    event.Kind,
		"id":                      event.ID,
		"selfLink":                event.SelfLink,
		"mediaLink":               event.MediaLink,
		"name":                    event.Name,
		"bucket":                  event.Bucket,
		"generation":              event.Generation,
		"metageneration":          event.Metageneration,
		"contentType":             event.ContentType,
		"storageClass":            event.StorageClass,
		"md5Hash":                 event.MD5Hash,
		"crc32c":                  event.CRC32C,
		"timeCreated":             event.TimeCreated,
		"updated":                 event.Updated,
		"timeStorageClassUpdated": event.TimeStorageClassUpdated,
	}
	for k, v := range optional {
		if v != "" {
			props[k] = v
		}
	}

	if event.Size != "" {
		size, err := strconv.ParseInt(event.Size, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: size %q is not an integer", domain.ErrMalformedInput, event.Size)
		}
		props[KeySize] = size
	}

	if len(event.Metadata) > 0 {
		metadata, err := domain.Scalar(event.Metadata)
		if err != nil {
			return nil, fmt.Errorf("metadata: %w", err)
		}
		props[KeyMetadata] = metadata
	}

	if id := event.Identifier(); id != "" {
		props[KeyTrellisUUID] = id
	}

	return props, nil
}
