package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// quietPathPrefix marks probe endpoints that are only logged at debug level
const quietPathPrefix = "/health"

// requestIDKey is the gin context key the RequestID middleware writes to
const requestIDKey = "request_id"

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// GinMiddleware writes one access log entry per request. The request-scoped
// logger goes into the request context so services pick it up with
// FromContext or For.
func GinMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		ctx, reqLogger := WithFields(c.Request.Context(), logger, routeFields(c, requestID(c)))
		reqLogger = reqLogger.With(
			zap.String("method", c.Request.Method),
			zap.String("path", path),
		)
		c.Request = c.Request.WithContext(WithContext(ctx, reqLogger))

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		if ce := reqLogger.Check(accessLevel(status, path), "HTTP Request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func accessLevel(status int, path string) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	case strings.HasPrefix(path, quietPathPrefix):
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// routeFields returns the request ID plus the batch or staged order
// addressed by the matched route
func routeFields(c *gin.Context, requestID string) Fields {
	f := Fields{RequestID: requestID}
	id := c.Param("id")
	if id == "" {
		return f
	}
	route := c.FullPath()
	switch {
	case strings.Contains(route, "/batches/:id"):
		f.BatchID = id
	case strings.Contains(route, "/staged-orders/:id"):
		f.StagedOrderID = id
	}
	return f
}

// Recovery returns a gin middleware that recovers from panics, logs them and
// answers with the standard error envelope
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				id := requestID(c)
				logger.Error("Panic recovered",
					zap.String("request_id", id),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", err),
					zap.Stack("stacktrace"),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":       "ERR_INTERNAL",
						"message":    "An unexpected error occurred",
						"request_id": id,
					},
				})
			}
		}()
		c.Next()
	}
}
