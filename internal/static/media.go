package static

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tariel-x/weddingcards/internal/storage"
)

// MediaHandler serves stored artifacts under a *key wildcard. Objects are
// immutable, so they are cached for a long time.
func MediaHandler(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		rc, err := store.Open(key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
				c.Status(http.StatusNotFound)
				return
			}
			c.Status(http.StatusInternalServerError)
			return
		}
		defer rc.Close()

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Header("Content-Type", contentType)
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Status(http.StatusOK)
		if c.Request.Method == http.MethodHead {
			return
		}
		_, _ = io.Copy(c.Writer, rc)
	}
}

// NotFound answers unknown routes: JSON under /api, plain text elsewhere.
func NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.String(http.StatusNotFound, "Not found")
}
