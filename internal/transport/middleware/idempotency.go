package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/visithran/loan-management/internal/auth"
)

// provisionalLockTTL bounds how long an in-flight request holds its key when
// the handler never finishes (crash, kill).
const provisionalLockTTL = 60 * time.Second

// idempotencyEntry is what we keep in redis per key: the in-progress marker
// while the first request runs, then the recorded response for replays.
type idempotencyEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	CreatedAt  time.Time `json:"created_at"`
}

// Idempotency deduplicates mutating requests that carry an
// X-Idempotency-Key header. A retry with the same key and body replays the
// stored response; the same key with a different body is a 409. Requests
// without the header pass through untouched, as does everything when rdb is
// nil (redis not configured).
func Idempotency(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rdb == nil {
				next.ServeHTTP(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			idemKey := strings.TrimSpace(r.Header.Get("X-Idempotency-Key"))
			if idemKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(r.Body)
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			bhash := bodyHash(body)

			key := buildKey(r, idemKey)
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			ok, err := provisionalSet(ctx, rdb, key, idempotencyEntry{
				InProgress: true,
				BodySHA256: bhash,
				CreatedAt:  time.Now().UTC(),
			})
			if err != nil {
				logger.Error("idempotency store unavailable", "error", err, "key", key)
				writeJSONError(w, http.StatusServiceUnavailable, "idempotency store unavailable")
				return
			}
			if !ok {
				cur, err := loadEntry(ctx, rdb, key)
				if err != nil {
					logger.Error("failed to load idempotency entry", "error", err, "key", key)
					writeJSONError(w, http.StatusServiceUnavailable, "idempotency store unavailable")
					return
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					writeJSONError(w, http.StatusConflict, "idempotency key reused with different body")
					return
				}
				if !cur.InProgress && cur.Code != 0 {
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("X-Idempotent-Replay", "true")
					w.WriteHeader(cur.Code)
					w.Write(cur.Body)
					return
				}
				writeJSONError(w, http.StatusConflict, "request is already in progress")
				return
			}

			rec := &responseWriter{ResponseWriter: w, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r)

			code := rec.statusCode
			if code == 0 {
				code = http.StatusOK
			}
			final := idempotencyEntry{
				Code:       code,
				Body:       rec.body.Bytes(),
				BodySHA256: bhash,
				CreatedAt:  time.Now().UTC(),
			}
			if err := saveFinal(context.Background(), rdb, key, final, ttl); err != nil {
				logger.Error("failed to store idempotent response", "error", err, "key", key)
			}
		})
	}
}

// buildKey scopes the idempotency key to method, route and acting user so
// two users reusing the same key never collide.
func buildKey(r *http.Request, idemKey string) string {
	var userID int64
	if u, ok := auth.UserFromContext(r.Context()); ok && u != nil {
		userID = u.ID
	}
	return fmt.Sprintf("idemp:%s:%s:%d:%s", strings.ToLower(r.Method), r.URL.Path, userID, idemKey)
}

func bodyHash(b []byte) string {
	s := sha256.Sum256(b)
	return hex.EncodeToString(s[:])
}

func provisionalSet(ctx context.Context, rdb *redis.Client, key string, entry idempotencyEntry) (bool, error) {
	payload, _ := json.Marshal(entry)
	return rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (idempotencyEntry, error) {
	var e idempotencyEntry
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(v, &e)
	return e, err
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, entry idempotencyEntry, ttl time.Duration) error {
	payload, _ := json.Marshal(entry)
	return rdb.Set(ctx, key, payload, ttl).Err()
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{"code": code, "message": message})
}
