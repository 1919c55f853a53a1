// Package fields derives the standard path and timestamp properties of a
// storage object. Every node gets these fields regardless of its label.
package fields

import (
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// Standard property names.
const (
	KeyBucket           = "bucket"
	KeyPath             = "path"
	KeyDirname          = "dirname"
	KeyBasename         = "basename"
	KeyName             = "name"
	KeyExtension        = "extension"
	KeyFiletype         = "filetype"
	KeyURI              = "uri"
	KeyTimeCreatedIso   = "timeCreatedIso"
	KeyTimeCreatedEpoch = "timeCreatedEpoch"
	KeyTimeUpdatedIso   = "timeUpdatedIso"
	KeyTimeUpdatedEpoch = "timeUpdatedEpoch"
)

// URIScheme is the fixed protocol prefix of object URIs.
const URIScheme = "gs://"

// isoLayout matches Python's datetime.isoformat for aware datetimes
// without fractional seconds.
const isoLayout = "2006-01-02T15:04:05-07:00"

// isoMicroLayout is used when the timestamp has a sub-second part.
const isoMicroLayout = "2006-01-02T15:04:05.000000-07:00"

// parseLayouts are tried in order when parsing event timestamps.
var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
}

// Extract computes name and time fields for an object. It is a pure function
// of its inputs. Returns domain.ErrMalformedTimestamp if either timestamp
// cannot be parsed.
func Extract(path, bucket, timeCreated, updated string) (domain.PropertySet, error) {
	props := NameFields(path, bucket)

	timeProps, err := TimeFields(timeCreated, updated)
	if err != nil {
		return nil, err
	}
	props.Merge(timeProps)

	return props, nil
}

// NameFields splits an object path into its path-derived fields.
//
// Example: va_mvp_phase2/PLATE0/SAMPLE0/FASTQ/SAMPLE0_0_R1.fastq.gz in bucket b
// yields dirname va_mvp_phase2/PLATE0/SAMPLE0/FASTQ, basename
// SAMPLE0_0_R1.fastq.gz, name SAMPLE0_0_R1, extension fastq.gz, filetype gz.
func NameFields(path, bucket string) domain.PropertySet {
	pathElements := strings.Split(path, "/")
	basename := pathElements[len(pathElements)-1]
	nameElements := strings.Split(basename, ".")

	return domain.PropertySet{
		KeyBucket:    bucket,
		KeyPath:      path,
		KeyDirname:   strings.Join(pathElements[:len(pathElements)-1], "/"),
		KeyBasename:  basename,
		KeyName:      nameElements[0],
		KeyExtension: strings.Join(nameElements[1:], "."),
		KeyFiletype:  nameElements[len(nameElements)-1],
		KeyURI:       URIScheme + bucket + "/" + path,
	}
}

// TimeFields parses the creation and update timestamps and returns each as an
// ISO-8601 string and as seconds since the Unix epoch.
func TimeFields(timeCreated, updated string) (domain.PropertySet, error) {
	created, err := ParseTimestamp(timeCreated)
	if err != nil {
		return nil, fmt.Errorf("timeCreated: %w", err)
	}
	modified, err := ParseTimestamp(updated)
	if err != nil {
		return nil, fmt.Errorf("updated: %w", err)
	}

	return domain.PropertySet{
		KeyTimeCreatedIso:   FormatISO(created),
		KeyTimeCreatedEpoch: EpochSeconds(created),
		KeyTimeUpdatedIso:   FormatISO(modified),
		KeyTimeUpdatedEpoch: EpochSeconds(modified),
	}, nil
}

// ParseTimestamp parses an RFC3339/ISO-8601 timestamp. Timestamps without a
// zone are taken as UTC.
func ParseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", domain.ErrMalformedTimestamp)
	}
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", domain.ErrMalformedTimestamp, value)
}

// FormatISO renders t with an explicit numeric offset, adding microseconds
// only when the timestamp has a sub-second part.
func FormatISO(t time.Time) string {
	if t.Nanosecond()/1000 != 0 {
		return t.Format(isoMicroLayout)
	}
	return t.Format(isoLayout)
}

// EpochSeconds returns t as floating point seconds since the Unix epoch (UTC).
func EpochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond()/1000)/1e6
}

// ParseURI splits a gs://bucket/path URI into its bucket and object path.
func ParseURI(uri string) (bucket, path string, err error) {
	rest, ok := strings.CutPrefix(uri, URIScheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not a %s URI", domain.ErrInvalidInput, uri, URIScheme)
	}
	bucket, path, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || path == "" {
		return "", "", fmt.Errorf("%w: %q has no object path", domain.ErrInvalidInput, uri)
	}
	return bucket, path, nil
}
