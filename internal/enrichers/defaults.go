package enrichers

import (
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
	"github.com/custodia-labs/trellis/internal/enrichers/content"
	"github.com/custodia-labs/trellis/internal/enrichers/groups"
	"github.com/custodia-labs/trellis/internal/enrichers/naming"
)

// RegisterDefaults registers all built-in metadata functions with the registry.
// reader serves the content functions; it may be nil when no label in use
// needs object content, in which case those functions are not registered.
func RegisterDefaults(r *Registry, reader driven.BlobContentReader) {
	r.Register(groups.Name, buildGroupdict)
	r.Register(naming.MatePairName, func(_ map[string]any) (driven.MetadataFunction, error) {
		return naming.NewMatePair(), nil
	})
	r.Register(naming.ReadGroupName, func(_ map[string]any) (driven.MetadataFunction, error) {
		return naming.NewReadGroup(), nil
	})

	if reader == nil {
		return
	}
	r.Register(content.JSONName, func(_ map[string]any) (driven.MetadataFunction, error) {
		return content.NewJSON(reader), nil
	})
	r.Register(content.ChecksumName, func(_ map[string]any) (driven.MetadataFunction, error) {
		return content.NewChecksum(reader), nil
	})
}

// buildGroupdict creates a groupdict function from generic config.
// Supported config keys:
//   - groups ([]string): capture group names to copy (default: all)
func buildGroupdict(cfg map[string]any) (driven.MetadataFunction, error) {
	return groups.New(getStringsFromConfig(cfg, "groups")...), nil
}

// getStringsFromConfig safely extracts a string list from generic config map.
// Handles []string and the []any produced by TOML/JSON parsing.
func getStringsFromConfig(cfg map[string]any, key string) []string {
	val, ok := cfg[key]
	if !ok {
		return nil
	}

	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
