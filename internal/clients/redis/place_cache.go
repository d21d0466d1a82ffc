package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/snapcal-backend/internal/domain"
	"github.com/yungbote/snapcal-backend/internal/platform/logger"
)

// PlaceCache is the shared second level of the place resolver cache. Several
// API replicas resolving the same venue only pay for one lookup per TTL.
type PlaceCache interface {
	GetPlace(ctx context.Context, query string) (*domain.PlaceResult, error)
	SetPlace(ctx context.Context, query string, place domain.PlaceResult, ttl time.Duration) error
	Close() error
}

type placeCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func NewPlaceCache(log *logger.Logger, addr, prefix string) (PlaceCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if prefix == "" {
		prefix = "snapcal:place:"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &placeCache{
		log:    log.With("service", "RedisPlaceCache"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (c *placeCache) GetPlace(ctx context.Context, query string) (*domain.PlaceResult, error) {
	raw, err := c.rdb.Get(ctx, placeKey(c.prefix, query)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p domain.PlaceResult
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode cached place: %w", err)
	}
	return &p, nil
}

// SetPlace writes only when the key is absent, so a live entry is never replaced.
func (c *placeCache) SetPlace(ctx context.Context, query string, place domain.PlaceResult, ttl time.Duration) error {
	raw, err := json.Marshal(place)
	if err != nil {
		return err
	}
	return c.rdb.SetNX(ctx, placeKey(c.prefix, query), raw, ttl).Err()
}

func (c *placeCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// placeKey hashes the exact query so arbitrary user text is a safe key.
func placeKey(prefix, query string) string {
	sum := sha256.Sum256([]byte(query))
	return prefix + hex.EncodeToString(sum[:])
}
