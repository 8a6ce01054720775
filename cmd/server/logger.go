package main

import (
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func zerologGinLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		rawQuery := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		event := logger.Debug()
		if status >= 500 {
			event = logger.Error()
		}
		event = event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Int64("latency_ms", time.Since(start).Milliseconds())
		// the feed token travels in the query string
		if rawQuery != "" && !strings.Contains(rawQuery, "token=") {
			event = event.Str("query", rawQuery)
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}
		event.Msg("http request")
	}
}

// newTLSErrorWriter wires net/http server errors into zerolog. Handshake
// errors for hosts outside the autocert policy are dropped.
func newTLSErrorWriter(logger zerolog.Logger) io.Writer {
	return &tlsErrorFilter{writer: &zerologLineWriter{logger: logger}}
}

type tlsErrorFilter struct {
	writer io.Writer
}

func (f *tlsErrorFilter) Write(p []byte) (n int, err error) {
	msg := string(p)
	if strings.Contains(msg, "TLS handshake error") && strings.Contains(msg, "not configured") {
		return len(p), nil
	}
	return f.writer.Write(p)
}

type zerologLineWriter struct {
	logger zerolog.Logger
}

func (w *zerologLineWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}
	w.logger.Warn().Str("message", msg).Msg("http server")
	return len(p), nil
}
