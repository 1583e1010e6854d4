package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gateway-go/config"
)

// SessionRepository menyimpan state sesi gateway: key-value string per
// sid. Ini padanan localStorage pada klien browser lama, dipindah ke
// sisi server agar guard dan synchronizer bisa diuji tanpa browser.
type SessionRepository interface {
	// Get mengembalikan "" ketika key tidak ada. Nilai sentinel
	// ("undefined"/"null") dinormalisasi menjadi absen.
	Get(ctx context.Context, sid, key string) (string, error)
	Set(ctx context.Context, sid, key, value string) error
	Clear(ctx context.Context, sid, key string) error
}

// NormalizeSessionValue memetakan nilai sentinel hasil penulisan
// "stringified undefined" menjadi string kosong (absen).
func NormalizeSessionValue(v string) string {
	if v == "undefined" || v == "null" {
		return ""
	}
	return v
}

// ==== Implementasi in-memory (dev & test) ====

type MemorySessionRepository struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{data: make(map[string]map[string]string)}
}

func (r *MemorySessionRepository) Get(_ context.Context, sid, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return NormalizeSessionValue(r.data[sid][key]), nil
}

func (r *MemorySessionRepository) Set(_ context.Context, sid, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data[sid] == nil {
		r.data[sid] = make(map[string]string)
	}
	r.data[sid][key] = value
	return nil
}

func (r *MemorySessionRepository) Clear(_ context.Context, sid, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data[sid], key)
	return nil
}

// ==== Implementasi PostgreSQL + cache Redis ====

// sessionCacheTTL mengikuti umur cookie sesi (24 jam).
const sessionCacheTTL = 24 * time.Hour

type PostgresSessionRepository struct {
	db    *sql.DB
	cache *redis.Client // boleh nil; cache hanya optimisasi
}

func NewPostgresSessionRepository(db *sql.DB, cache *redis.Client) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db, cache: cache}
}

func cacheKey(sid, key string) string {
	return fmt.Sprintf("sess:%s:%s", sid, key)
}

func (r *PostgresSessionRepository) Get(ctx context.Context, sid, key string) (string, error) {
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, cacheKey(sid, key)).Result()
		if err == nil {
			return NormalizeSessionValue(cached), nil
		}
		if !errors.Is(err, redis.Nil) {
			config.Log.Warn("Cache sesi tidak terjangkau: ", err)
		}
	}

	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM gateway_sessions WHERE sid = $1 AND key = $2`,
		sid, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("gagal membaca sesi: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey(sid, key), value, sessionCacheTTL).Err(); err != nil {
			config.Log.Warn("Gagal mengisi cache sesi: ", err)
		}
	}

	return NormalizeSessionValue(value), nil
}

func (r *PostgresSessionRepository) Set(ctx context.Context, sid, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO gateway_sessions (sid, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (sid, key) DO UPDATE SET value = $3, updated_at = now()`,
		sid, key, value)
	if err != nil {
		return fmt.Errorf("gagal menulis sesi: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey(sid, key), value, sessionCacheTTL).Err(); err != nil {
			config.Log.Warn("Gagal memperbarui cache sesi: ", err)
		}
	}
	return nil
}

func (r *PostgresSessionRepository) Clear(ctx context.Context, sid, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM gateway_sessions WHERE sid = $1 AND key = $2`, sid, key)
	if err != nil {
		return fmt.Errorf("gagal menghapus sesi: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Del(ctx, cacheKey(sid, key)).Err(); err != nil {
			config.Log.Warn("Gagal menghapus cache sesi: ", err)
		}
	}
	return nil
}

// ==== Identitas sesi pada cookie ====

const sidCookieKey = "sid"

// EnsureSID mengambil sid dari cookie session, atau membuat yang baru.
func EnsureSID(c *gin.Context) string {
	sess := sessions.Default(c)
	if v, ok := sess.Get(sidCookieKey).(string); ok && v != "" {
		return v
	}
	sid := uuid.NewString()
	sess.Set(sidCookieKey, sid)
	if err := sess.Save(); err != nil {
		config.Log.Error("Gagal menyimpan cookie sesi: ", err)
	}
	return sid
}
