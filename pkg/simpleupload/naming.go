package simpleupload

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// storedNameRe matches the shape every storage name must have: a canonical
// dashed UUID, an optional 8-hex disambiguation suffix, and an optional
// lowercased extension.
var storedNameRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(_[0-9a-f]{8})?(\.[a-z0-9]+)?$`)

// GenerateStorageName produces a fresh collision-resistant storage name from
// the user-supplied filename: a random UUID plus the lowercased extension.
// The original filename contributes nothing but the extension.
func GenerateStorageName(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return uuid.New().String() + ext
}

// DisambiguateStorageName appends a short random suffix before the extension,
// used when a generated name is already taken in the store.
func DisambiguateStorageName(name string) string {
	ext := filepath.Ext(name)
	root := strings.TrimSuffix(name, ext)
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%s%s", root, suffix, ext)
}

// ValidateStoredName checks that a storage name conforms to the expected
// UUID-based shape. Records are never created under free-form names.
func ValidateStoredName(name string) error {
	if !storedNameRe.MatchString(strings.ToLower(filepath.Base(name))) {
		return fmt.Errorf("%w: %q", ErrInvalidStoredName, name)
	}
	return nil
}
