package utils

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// SanitizeHeaderFilename removes characters that can break headers.
func SanitizeHeaderFilename(name string) string {
	clean := strings.TrimSpace(name)
	clean = strings.NewReplacer("\r", "", "\n", "", "\"", "", "\\", "").Replace(clean)
	if clean == "" {
		return "download"
	}
	return clean
}

// ContentDisposition builds a Content-Disposition value with an RFC 5987 UTF-8 fallback.
func ContentDisposition(kind, name string) string {
	safe := SanitizeHeaderFilename(name)
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`, kind, safe, url.PathEscape(safe))
}

// SanitizeFileName strips directory components and control characters from an uploaded name.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
}
