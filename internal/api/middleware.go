package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"narrative-engine/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	playerIDKey     = "player_id"
)

// RequestID проставляет идентификатор запроса, если клиент его не прислал.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// ZapLogger пишет по строке на запрос. Служебные пути не логируются.
func ZapLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zapcore.Field{
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			fields = append(fields, zap.String("error", errorMessage))
		}

		switch {
		case statusCode >= http.StatusInternalServerError:
			logger.Error("Request handled", fields...)
		case statusCode >= http.StatusBadRequest:
			logger.Warn("Request handled", fields...)
		default:
			logger.Info("Request handled", fields...)
		}
	}
}

// tokenFromRequest берёт токен из заголовка Authorization, а для WebSocket,
// где браузер не умеет ставить заголовки, из параметра token.
func tokenFromRequest(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", models.ErrUnauthorized
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", models.ErrTokenMalformed
	}
	return token, nil
}

// JWTAuth проверяет HS256-токен и кладёт subject в контекст как player_id.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := tokenFromRequest(c)
		if err != nil {
			handleError(c, err)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			handleError(c, models.ErrTokenExpired)
			return
		case errors.Is(err, jwt.ErrTokenMalformed):
			handleError(c, models.ErrTokenMalformed)
			return
		case err != nil || !token.Valid:
			handleError(c, models.ErrTokenInvalid)
			return
		}
		if claims.Subject == "" {
			handleError(c, fmt.Errorf("%w: subject is missing", models.ErrTokenInvalid))
			return
		}

		c.Set(playerIDKey, claims.Subject)
		c.Next()
	}
}
