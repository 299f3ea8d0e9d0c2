package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Endpoint is one proxy in the form the browser engine consumes: a
// scheme://host:port server address plus optional credentials.
type Endpoint struct {
	Server   string
	Username string
	Password string
}

// ParseEndpoint normalizes a proxy URL into an Endpoint, attaching the
// shared credentials when given.
func ParseEndpoint(raw, username, password string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid proxy url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("proxy url %q missing scheme or host", raw)
	}
	server := u.Scheme + "://" + u.Hostname()
	if p := u.Port(); p != "" {
		server += ":" + p
	}
	return Endpoint{Server: server, Username: username, Password: password}, nil
}

// ParseEndpoints parses a proxy list, skipping entries that do not parse.
func ParseEndpoints(raw []string, username, password string) []Endpoint {
	endpoints := make([]Endpoint, 0, len(raw))
	for _, r := range raw {
		ep, err := ParseEndpoint(r, username, password)
		if err != nil {
			slog.Warn("skipping malformed proxy url", "url", r, "error", err)
			continue
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints
}

// Rotator hands out proxies in strict round-robin order. Next never blocks
// and never fails; ok is false when the pool is empty.
type Rotator interface {
	Next(ctx context.Context) (ep Endpoint, ok bool)
}

// RoundRobin is an in-process rotator. The cursor advance is serialized so a
// rotator shared across concurrent runs preserves round-robin fairness.
type RoundRobin struct {
	endpoints []Endpoint

	mu     sync.Mutex
	cursor int
}

func NewRoundRobin(endpoints []Endpoint) *RoundRobin {
	return &RoundRobin{endpoints: endpoints}
}

func (r *RoundRobin) Next(_ context.Context) (Endpoint, bool) {
	if len(r.endpoints) == 0 {
		return Endpoint{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ep := r.endpoints[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.endpoints)
	return ep, true
}

// RedisRotator keeps the round-robin cursor in Redis so separate processes
// sharing one proxy pool still alternate fairly. INCR makes the advance
// atomic; the local rotator takes over if Redis becomes unreachable.
type RedisRotator struct {
	client    *redis.Client
	key       string
	endpoints []Endpoint
	fallback  *RoundRobin
	logger    *slog.Logger
}

func NewRedisRotator(client *redis.Client, key string, endpoints []Endpoint) *RedisRotator {
	return &RedisRotator{
		client:    client,
		key:       key,
		endpoints: endpoints,
		fallback:  NewRoundRobin(endpoints),
		logger:    slog.Default().With("component", "proxy_rotator"),
	}
}

func (r *RedisRotator) Next(ctx context.Context) (Endpoint, bool) {
	if len(r.endpoints) == 0 {
		return Endpoint{}, false
	}
	n, err := r.client.Incr(ctx, r.key).Result()
	if err != nil {
		r.logger.Warn("redis cursor advance failed, using local cursor", "error", err)
		return r.fallback.Next(ctx)
	}
	idx := int((n - 1) % int64(len(r.endpoints)))
	if idx < 0 {
		idx += len(r.endpoints)
	}
	return r.endpoints[idx], true
}
