package sandbox

import "strings"

// ResolvePath converts a caller-supplied path into one anchored at the
// sandbox's home directory. Paths that are already absolute or explicitly
// home-relative pass through unchanged; everything else (including the
// empty string) is treated as home-relative.
func ResolvePath(path string) string {
	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "~/") {
		return path
	}
	return "~/" + path
}
