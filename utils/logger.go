package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const sharedPathPrefix = "/api/files/shared/"

func tokenDigest(token string) string {
	return "sha256-" + HashShareToken(token)[:12]
}

// RedactSharePath replaces share tokens in a request path and its query with a short digest.
func RedactSharePath(p string) string {
	pathPart, rawQuery, hasQuery := strings.Cut(p, "?")
	if rest, ok := strings.CutPrefix(pathPart, sharedPathPrefix); ok && rest != "" {
		token, tail, hasTail := strings.Cut(rest, "/")
		pathPart = sharedPathPrefix + tokenDigest(token)
		if hasTail {
			pathPart += "/" + tail
		}
	}
	if !hasQuery {
		return pathPart
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return pathPart + "?[unparsed]"
	}
	if tokens, ok := values["token"]; ok {
		for i, token := range tokens {
			tokens[i] = tokenDigest(token)
		}
		rawQuery = values.Encode()
	}
	return pathPart + "?" + rawQuery
}

// AccessLogger is gin's access log with share tokens redacted.
func AccessLogger() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v\n%s",
				param.TimeStamp.Format("2006/01/02 - 15:04:05"),
				param.StatusCode,
				param.Latency,
				param.ClientIP,
				param.Method,
				RedactSharePath(param.Path),
				param.ErrorMessage,
			)
		},
	})
}
