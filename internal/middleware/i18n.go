// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// I18nMiddleware stores the request language under "lang". Unsupported
// languages fall back to defaultLang.
func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", resolveLang(c.GetHeader("Accept-Language"), defaultLang))
		c.Next()
	}
}

func resolveLang(header, defaultLang string) string {
	if header == "" {
		return defaultLang
	}

	// Handle cases like "zh-TW,zh;q=0.9,en;q=0.8"
	first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	switch first {
	case "zh-TW", "zh-Hant", "zh_TW", "zh-HK":
		return "zh_TW"
	case "en", "en-US", "en-GB":
		return "en"
	default:
		return defaultLang
	}
}
