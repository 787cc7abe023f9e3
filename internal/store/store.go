package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrObjectNotExist is returned when an operation targets an object that is no
// longer present, e.g. a Move whose source was already claimed by another run.
var ErrObjectNotExist = errors.New("store: object does not exist")

// ObjectStore abstracts the hierarchical blob store the pipeline runs against.
// Implementations must keep Move as copy-then-delete with no atomicity guarantee
// across the two steps; a missing source is reported as ErrObjectNotExist with
// no side effects.
type ObjectStore interface {
	// List returns the names of all non-directory objects under prefix, in the
	// store's enumeration order.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	Read(ctx context.Context, bucket, object string) ([]byte, error)
	Write(ctx context.Context, bucket, object string, data []byte, contentType string) error
	// Move relocates object under destPrefix, keeping its base filename, and
	// returns the new object name.
	Move(ctx context.Context, bucket, object, destPrefix string) (string, error)
	Exists(ctx context.Context, bucket, object string) (bool, error)
}

// Location is a parsed two-part blob store address.
type Location struct {
	Bucket string
	Prefix string // normalized: empty, or ends with "/"
}

var locationRegex = regexp.MustCompile(`^gs://([^/]+)/?(.*)$`)

// ParseLocation parses an address of the form gs://<bucket>/<prefix>. The
// returned prefix always carries a trailing slash when non-empty, so callers
// can concatenate object names directly.
func ParseLocation(raw string) (Location, error) {
	m := locationRegex.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Location{}, fmt.Errorf("invalid location %q: expected gs://<bucket_name>/<prefix>", raw)
	}
	loc := Location{Bucket: m[1], Prefix: m[2]}
	if loc.Prefix != "" {
		loc.Prefix = strings.TrimRight(loc.Prefix, "/") + "/"
	}
	return loc, nil
}

// String renders the location back in gs:// form.
func (l Location) String() string {
	return fmt.Sprintf("gs://%s/%s", l.Bucket, l.Prefix)
}

// BaseName returns the filename component of an object name.
func BaseName(object string) string {
	if i := strings.LastIndex(object, "/"); i >= 0 {
		return object[i+1:]
	}
	return object
}

// StripExt removes the final extension from a filename.
func StripExt(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
