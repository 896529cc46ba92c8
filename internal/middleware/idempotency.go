package middleware

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyPrefix = "idempotency:"
)

type RedisCache struct {
	client redis.UniversalClient
	logger *zap.Logger
}

func NewRedisCache(client redis.UniversalClient, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, logger: logger}
}

func (c *RedisCache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	} else if err != nil {
		c.logger.Error("Redis get error", zap.Error(err))
		return nil, false
	}
	return val, true
}

func (c *RedisCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Error("Redis set error", zap.Error(err))
	}
}

type cachedResponse struct {
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency replays the first successful response sent for an
// Idempotency-Key. Requests without the header pass through untouched. A key
// reused with a different request body is rejected with 422.
func Idempotency(cache *RedisCache, ttl time.Duration, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(IdempotencyHeader)
			if key == "" {
				return next(c)
			}
			ctx := c.Request().Context()
			cacheKey := idempotencyPrefix + c.Request().Method + ":" + c.Path() + ":" + key

			requestHash, err := hashBody(c.Request())
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
			}

			if cached, ok := cache.GetBytes(ctx, cacheKey); ok {
				var resp cachedResponse
				if err := json.Unmarshal(cached, &resp); err != nil {
					logger.Error("Failed to unmarshal cached response", zap.Error(err))
					return next(c)
				}
				if resp.RequestHash != requestHash {
					logger.Info("Idempotency key reused with a different request", zap.String("key", key))
					return echo.NewHTTPError(http.StatusUnprocessableEntity, "Idempotency-Key was already used with a different request")
				}
				logger.Info("Returning cached response", zap.String("key", key))
				return c.Blob(resp.Status, resp.ContentType, resp.Body)
			}

			rec := &bodyRecorder{ResponseWriter: c.Response().Writer}
			c.Response().Writer = rec

			err = next(c)
			status := c.Response().Status
			if err != nil || status < 200 || status >= 300 {
				return err
			}

			data, err := json.Marshal(cachedResponse{
				RequestHash: requestHash,
				Status:      status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        rec.body.Bytes(),
			})
			if err != nil {
				logger.Error("Failed to marshal response", zap.Error(err))
				return nil
			}
			cache.SetBytes(ctx, cacheKey, data, ttl)
			logger.Info("Successfully set idempotency data by key", zap.String("key", key))
			return nil
		}
	}
}

// hashBody digests the request body and puts it back for the handler.
func hashBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return hex.EncodeToString(sha256.New().Sum(nil)), nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

type bodyRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *bodyRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("response writer does not support hijacking")
}
