// Package pathcodec implements the materialized-path string format used
// by the content tree. A path encodes a node's full ancestor chain (self
// included) as delimiter-joined ids with leading and trailing delimiters:
//
//	/<rootID>/<childID>/<selfID>/
//
// The delimiter is a single printable character that never appears in a
// UUID's string form. Every structural guarantee of the tree (acyclicity,
// prefix subtree queries, atomic subtree moves) depends on this format,
// so all path string manipulation lives here and nowhere else.
package pathcodec

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/curriculab/curricula-backend/internal/domain"
)

// Delimiter separates path segments. It must not appear in an id's
// string representation; UUIDs contain '-', so '/' is used.
const Delimiter = "/"

// Encode builds the path for a node with the given ancestor chain
// (root first) and its own id.
func Encode(ancestorIDs []uuid.UUID, selfID uuid.UUID) string {
	var b strings.Builder
	b.Grow((len(ancestorIDs) + 1) * 37)
	b.WriteString(Delimiter)
	for _, id := range ancestorIDs {
		b.WriteString(id.String())
		b.WriteString(Delimiter)
	}
	b.WriteString(selfID.String())
	b.WriteString(Delimiter)
	return b.String()
}

// Child returns the path of a node with the given id under parentPath.
// An empty parentPath produces a root path.
func Child(parentPath string, id uuid.UUID) string {
	if parentPath == "" {
		return Delimiter + id.String() + Delimiter
	}
	return parentPath + id.String() + Delimiter
}

// Decode parses a path into its ordered id chain, root first, self last.
// Returns domain.ErrMalformedPath if the string violates the grammar.
func Decode(path string) ([]uuid.UUID, error) {
	if len(path) < 2 || !strings.HasPrefix(path, Delimiter) || !strings.HasSuffix(path, Delimiter) {
		return nil, fmt.Errorf("path %q: %w", path, domain.ErrMalformedPath)
	}

	segments := strings.Split(path[1:len(path)-1], Delimiter)
	ids := make([]uuid.UUID, len(segments))
	for i, seg := range segments {
		id, err := uuid.Parse(seg)
		if err != nil || seg != id.String() {
			return nil, fmt.Errorf("path %q segment %d: %w", path, i, domain.ErrMalformedPath)
		}
		ids[i] = id
	}

	return ids, nil
}

// Depth returns the node's depth encoded in the path; roots have depth 0.
func Depth(path string) (int, error) {
	ids, err := Decode(path)
	if err != nil {
		return 0, err
	}
	return len(ids) - 1, nil
}

// SelfID returns the last segment of the path: the node's own id.
func SelfID(path string) (uuid.UUID, error) {
	ids, err := Decode(path)
	if err != nil {
		return uuid.Nil, err
	}
	return ids[len(ids)-1], nil
}

// AncestorIDs returns the id chain excluding the node itself, root first.
// Roots yield an empty slice.
func AncestorIDs(path string) ([]uuid.UUID, error) {
	ids, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return ids[:len(ids)-1], nil
}

// IsDescendantPath reports whether candidate lies strictly below ancestor.
// A path is never its own descendant.
func IsDescendantPath(candidate, ancestor string) bool {
	return candidate != ancestor && strings.HasPrefix(candidate, ancestor)
}

// Rebase replaces the leading oldPrefix of oldPath with newPrefix. It is
// the string-level operation behind subtree moves: every descendant of a
// moved node is rebased from the node's old path onto its new path.
// Returns domain.ErrPrefixMismatch if oldPath does not start with oldPrefix.
func Rebase(oldPath, oldPrefix, newPrefix string) (string, error) {
	if !strings.HasPrefix(oldPath, oldPrefix) {
		return "", fmt.Errorf("path %q does not start with %q: %w", oldPath, oldPrefix, domain.ErrPrefixMismatch)
	}
	return newPrefix + oldPath[len(oldPrefix):], nil
}
