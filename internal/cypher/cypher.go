// Package cypher generates the parameterised graph queries sent to the
// database service. Values are never inlined: every property becomes a
// $name placeholder resolved from the request's query parameters.
package cypher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// Identity properties the merge is keyed on.
const (
	KeyURI    = "uri"
	KeyCRC32C = "crc32c"
)

// Node markers written by the merge itself. Properties may not use them.
const (
	KeyNodeCreated   = "nodeCreated"
	KeyNodeIteration = "nodeIteration"
)

// MergeKeys are the properties updated when a node already exists. Every
// other property is only written on creation.
var MergeKeys = []string{
	"md5Hash",
	"size",
	"timeUpdatedEpoch",
	"timeUpdatedIso",
	"timeStorageClassUpdated",
	"updated",
	"id",
	"crc32c",
	"generation",
	"storageClass",
	"fastqCount",
	"microarrayCount",
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateKeys returns domain.ErrInvalidPropertyKey for the first key that
// cannot be used as a property or parameter name.
func ValidateKeys(props domain.PropertySet) error {
	for _, k := range props.Keys() {
		if !identifier.MatchString(k) {
			return fmt.Errorf("%w: %q", domain.ErrInvalidPropertyKey, k)
		}
	}
	return nil
}

func validateLabel(label string) error {
	if !identifier.MatchString(label) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownLabel, label)
	}
	return nil
}

// BuildMergeQuery returns the upsert for a node of label keyed on uri and
// crc32c. When crc32c is absent the node is keyed on uri alone. Keys are
// emitted in sorted order so identical input always produces identical text.
//
//	MERGE (node:Fastq { uri: $uri, crc32c: $crc32c })
//	ON CREATE SET node.nodeCreated = timestamp(), node.nodeIteration = 'initial', node.a = $a, ...
//	ON MATCH SET node.nodeIteration = 'merged', node.size = $size, ...
//	RETURN node
//
// The clauses are joined by single spaces.
func BuildMergeQuery(label string, props domain.PropertySet) (string, error) {
	if err := validateLabel(label); err != nil {
		return "", err
	}
	if err := ValidateKeys(props); err != nil {
		return "", err
	}
	for _, k := range []string{KeyNodeCreated, KeyNodeIteration} {
		if props.Has(k) {
			return "", fmt.Errorf("%w: %q is reserved", domain.ErrInvalidPropertyKey, k)
		}
	}
	if !props.Has(KeyURI) {
		return "", fmt.Errorf("%w: %s", domain.ErrMissingField, KeyURI)
	}
	key := "uri: $uri"
	if props.Has(KeyCRC32C) {
		key += ", crc32c: $crc32c"
	}

	onCreate := []string{
		"node." + KeyNodeCreated + " = timestamp()",
		"node." + KeyNodeIteration + " = 'initial'",
	}
	onCreate = append(onCreate, assignments(props.Keys())...)

	onMatch := []string{"node." + KeyNodeIteration + " = 'merged'"}
	var present []string
	for _, k := range MergeKeys {
		if props.Has(k) {
			present = append(present, k)
		}
	}
	onMatch = append(onMatch, assignments(present)...)

	var b strings.Builder
	fmt.Fprintf(&b, "MERGE (node:%s { %s }) ", label, key)
	b.WriteString("ON CREATE SET ")
	b.WriteString(strings.Join(onCreate, ", "))
	b.WriteString(" ON MATCH SET ")
	b.WriteString(strings.Join(onMatch, ", "))
	b.WriteString(" RETURN node")
	return b.String(), nil
}

// BuildCreateQuery returns an unconditional node creation for label with
// every property in props, in sorted key order.
//
//	CREATE (node:Job { a: $a, b: $b }) RETURN node
func BuildCreateQuery(label string, props domain.PropertySet) (string, error) {
	if err := validateLabel(label); err != nil {
		return "", err
	}
	if err := ValidateKeys(props); err != nil {
		return "", err
	}

	keys := props.Keys()
	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = k + ": $" + k
	}
	return fmt.Sprintf("CREATE (node:%s { %s }) RETURN node", label, strings.Join(fields, ", ")), nil
}

func assignments(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = "node." + k + " = $" + k
	}
	return out
}
