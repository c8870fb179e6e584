// Package validation gates every untrusted string before it reaches the graph
// store or the blob store. Labels, relationship types and property keys must
// match a strict identifier pattern; property values must belong to a small
// scalar set; filenames are scrubbed for path traversal. Nothing here has side
// effects beyond returning an error.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	pkgerrors "filegraph/pkg/errors"
)

const (
	// MaxIdentifierLength bounds labels, relationship types and property keys.
	MaxIdentifierLength = 255

	// MaxFilenameLength matches the common filesystem limit.
	MaxFilenameLength = 255

	// MaxStringValueLength caps string property values.
	MaxStringValueLength = 64 * 1024
)

// Label validates a node label against the identifier whitelist.
func Label(name string) error {
	return identifier(name, "label")
}

// RelationType validates a relationship type name.
func RelationType(name string) error {
	return identifier(name, "relationship type")
}

// PropertyKey validates a property key name.
func PropertyKey(name string) error {
	return identifier(name, "property key")
}

// identifier checks the strict pattern shared by all graph identifiers:
// letters, digits and underscores, starting with a letter or underscore.
// Anything resembling query-language control syntax fails here.
func identifier(name, kind string) error {
	if name == "" {
		return pkgerrors.NewValidationError(fmt.Sprintf("%s cannot be empty", kind))
	}
	if len(name) > MaxIdentifierLength {
		return pkgerrors.NewValidationError(fmt.Sprintf("%s is too long (max %d characters)", kind, MaxIdentifierLength))
	}
	for i, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return pkgerrors.NewValidationError(fmt.Sprintf(
			"%s must contain only alphanumeric characters and underscores, and start with a letter", kind))
	}
	return nil
}

// PropertyValue validates that a property value belongs to the allowed scalar
// set: string, integer, float, boolean or nil.
func PropertyValue(value interface{}) error {
	switch v := value.(type) {
	case nil, bool, int, int32, int64, float32, float64:
		return nil
	case string:
		if len(v) > MaxStringValueLength {
			return pkgerrors.NewValidationError(fmt.Sprintf(
				"string property value exceeds %d bytes", MaxStringValueLength))
		}
		if !utf8.ValidString(v) {
			return pkgerrors.NewValidationError("string property value is not valid UTF-8")
		}
		return nil
	default:
		return pkgerrors.NewValidationError(fmt.Sprintf(
			"property value type %T is not allowed", value))
	}
}

// Properties validates every key and value of a property map.
func Properties(props map[string]interface{}) error {
	for key, value := range props {
		if err := PropertyKey(key); err != nil {
			return err
		}
		if err := PropertyValue(value); err != nil {
			return err
		}
	}
	return nil
}

// Filename validates a filename headed toward both the graph store and the
// blob store. The same scrub covers both sinks: no directory components, no
// traversal sequences, no null bytes, no hidden files.
func Filename(name string) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.NewValidationError("filename cannot be empty")
	}
	if len(name) > MaxFilenameLength {
		return pkgerrors.NewValidationError(fmt.Sprintf("filename is too long (max %d characters)", MaxFilenameLength))
	}
	if strings.ContainsRune(name, 0) {
		return pkgerrors.NewValidationError("filename contains a null byte")
	}
	if strings.ContainsAny(name, "/\\") || filepath.IsAbs(name) {
		return pkgerrors.NewValidationError("filename contains invalid path components")
	}
	if name != filepath.Base(name) || name == ".." || strings.Contains(name, "..") {
		return pkgerrors.NewValidationError("filename contains invalid path components")
	}
	if strings.HasPrefix(name, ".") {
		return pkgerrors.NewValidationError("hidden files are not allowed")
	}
	return nil
}

// allowedContentTypes is the MIME whitelist for uploaded files.
var allowedContentTypes = map[string]bool{
	// Documents
	"text/plain":      true,
	"text/csv":        true,
	"application/pdf": true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,

	// Images
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,

	// Archives
	"application/zip":   true,
	"application/x-tar": true,
	"application/gzip":  true,

	// Code and config
	"application/json":       true,
	"application/xml":        true,
	"text/html":              true,
	"text/css":               true,
	"text/javascript":        true,
	"application/javascript": true,

	"application/octet-stream": true,
}

// DefaultContentType is used when an upload carries no content type.
const DefaultContentType = "application/octet-stream"

// ContentType normalizes and validates a MIME type against the whitelist.
// An empty value defaults to application/octet-stream.
func ContentType(contentType string) (string, error) {
	if contentType == "" {
		return DefaultContentType, nil
	}

	// Strip parameters such as charset before matching
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if !allowedContentTypes[base] {
		return "", pkgerrors.NewValidationError(fmt.Sprintf("file type '%s' is not allowed", base))
	}
	return base, nil
}
