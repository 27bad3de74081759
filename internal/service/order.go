package service

import "strings"

var allowedOrderBy = map[string]string{
	"created_at": "files.created_at",
	"name":       "files.name",
	"size":       "files.size_bytes",
	"size_bytes": "files.size_bytes",
	"type":       "files.mime_type",
	"mime_type":  "files.mime_type",
	"owner":      "users.email",
}

func sanitizeOrderBy(orderBy string) string {
	key := strings.ToLower(strings.TrimSpace(orderBy))
	return allowedOrderBy[key]
}

func sanitizeOrderDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}
