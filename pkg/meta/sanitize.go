package meta

import (
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1F]`)

// SanitizeFilename replaces characters that are not allowed in file names on
// common filesystems and trims surrounding spaces and dots.
func SanitizeFilename(s string) string {
	return strings.Trim(unsafeFilenameChars.ReplaceAllString(s, "_"), " .")
}
