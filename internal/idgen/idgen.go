// Package idgen issues version ids that are unique across the whole catalog.
// An id is the scope (an item id) followed by a dot and a globally unique suffix.
package idgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

type Generator interface {
	GenerateID(ctx context.Context, scopeID string) (string, error)
}

// UUID suffixes the scope with a time-ordered UUIDv7.
type UUID struct{}

func NewUUID() *UUID { return &UUID{} }

func (g *UUID) GenerateID(ctx context.Context, scopeID string) (string, error) {
	if err := checkScope(scopeID); err != nil {
		return "", err
	}
	u, err := uuid.NewV7()
	if err != nil {
		return "", domain.Wrap(domain.CodeBackendFailure, "idgen.GenerateID", err)
	}
	return scopeID + "." + u.String(), nil
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Key holds the shared counter.
	Key string
	// Node tags ids from this process; defaults to a random short id.
	Node string
}

// Sequence draws suffixes from a Redis counter shared by every catalog process.
type Sequence struct {
	rdb  goredis.UniversalClient
	key  string
	node string
	log  *logger.Logger
}

func NewRedisSequence(ctx context.Context, cfg RedisConfig, log *logger.Logger) (*Sequence, error) {
	if log == nil {
		return nil, fmt.Errorf("idgen: logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("idgen: missing redis addr")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("idgen: redis ping: %w", err)
	}
	return NewSequence(rdb, cfg.Key, cfg.Node, log), nil
}

// NewSequence wraps an existing client.
func NewSequence(rdb goredis.UniversalClient, key, node string, log *logger.Logger) *Sequence {
	if strings.TrimSpace(key) == "" {
		key = "ground:version_seq"
	}
	if strings.TrimSpace(node) == "" {
		node = uuid.NewString()[:8]
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Sequence{rdb: rdb, key: key, node: node, log: log.With("component", "RedisSequence", "node", node)}
}

func (s *Sequence) GenerateID(ctx context.Context, scopeID string) (string, error) {
	const op = "idgen.GenerateID"
	if err := checkScope(scopeID); err != nil {
		return "", err
	}
	n, err := s.rdb.Incr(ctx, s.key).Result()
	if err != nil {
		s.log.Warn("sequence increment failed", "error", err)
		return "", domain.Wrap(domain.CodeBackendFailure, op, err)
	}
	return fmt.Sprintf("%s.%s-%d", scopeID, s.node, n), nil
}

func (s *Sequence) Close() error { return s.rdb.Close() }

func checkScope(scopeID string) error {
	if _, _, err := domain.ParseItemID(scopeID); err != nil {
		return domain.NewError(domain.CodeInvalidArgument, "idgen.GenerateID", "malformed scope id "+scopeID, err)
	}
	return nil
}

func (s *Sequence) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }
