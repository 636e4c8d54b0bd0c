package kterrors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidatePersonID validates a person identifier for safety before it is
// used in URLs, filenames or storage keys.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 128 characters
func ValidatePersonID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPerson, "person ID cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidPerson, "person ID too long (max 128 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPerson, "person ID contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidPerson, "person ID contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateDocumentFilename validates an interchange document filename for
// safety. It ensures the filename is a simple basename without path
// components.
func ValidateDocumentFilename(filename string) error {
	if filename == "" {
		return New(ErrCodeInvalidDocument, "document filename cannot be empty")
	}

	// Must be a simple filename, not a path
	if strings.ContainsAny(filename, "/\\") {
		return New(ErrCodeInvalidDocument, "document filename cannot contain path separators")
	}

	// No hidden files (starting with .)
	if strings.HasPrefix(filename, ".") {
		return New(ErrCodeInvalidDocument, "document filename cannot be a hidden file")
	}

	return nil
}

// snapshotNameRegex matches the timestamped snapshot basenames written next
// to the main document, with an optional collision suffix.
var snapshotNameRegex = regexp.MustCompile(`^family-\d{8}-\d{6}(-\d+)?\.json$`)

// ValidateSnapshotName validates a snapshot filename.
func ValidateSnapshotName(name string) error {
	if err := ValidateDocumentFilename(name); err != nil {
		return err
	}

	if !snapshotNameRegex.MatchString(name) {
		return New(ErrCodeInvalidDocument, "invalid snapshot name: %q", name)
	}

	return nil
}
