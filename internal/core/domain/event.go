package domain

import "time"

// IdentifierMetadataKey is the blob metadata key holding the stable object identifier.
const IdentifierMetadataKey = "trellis-uuid"

// identifierAliasKey is accepted on read for objects labelled with the short key.
const identifierAliasKey = "id"

// ObjectEvent is a storage object notification in the JSON_API_V1 payload format.
// It is read-only; the pipeline never mutates it.
type ObjectEvent struct {
	Kind                    string            `json:"kind,omitempty"`
	ID                      string            `json:"id,omitempty"`
	SelfLink                string            `json:"selfLink,omitempty"`
	MediaLink               string            `json:"mediaLink,omitempty"`
	Name                    string            `json:"name"`
	Bucket                  string            `json:"bucket"`
	Generation              string            `json:"generation,omitempty"`
	Metageneration          string            `json:"metageneration,omitempty"`
	ContentType             string            `json:"contentType,omitempty"`
	StorageClass            string            `json:"storageClass,omitempty"`
	Size                    string            `json:"size,omitempty"`
	MD5Hash                 string            `json:"md5Hash,omitempty"`
	CRC32C                  string            `json:"crc32c,omitempty"`
	TimeCreated             string            `json:"timeCreated,omitempty"`
	Updated                 string            `json:"updated,omitempty"`
	TimeStorageClassUpdated string            `json:"timeStorageClassUpdated,omitempty"`
	Metadata                map[string]string `json:"metadata,omitempty"`
}

// Identifier returns the object's stable identifier from its metadata.
// Returns empty string when the object has not been assigned one yet.
func (e *ObjectEvent) Identifier() string {
	if e.Metadata == nil {
		return ""
	}
	if id := e.Metadata[IdentifierMetadataKey]; id != "" {
		return id
	}
	return e.Metadata[identifierAliasKey]
}

// EventContext carries delivery metadata for an event.
type EventContext struct {
	// EventID is the platform-assigned delivery identifier. It seeds the
	// request chain for everything this event causes.
	EventID string `json:"eventId"`

	// EventType is the trigger type (e.g. "google.storage.object.finalize").
	EventType string `json:"eventType,omitempty"`

	// Timestamp is when the platform emitted the event.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// Resource names the object or topic the event refers to.
	Resource string `json:"resource,omitempty"`
}
