package proxy

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		server  string
		wantErr bool
	}{
		{"http with port", "http://proxy.example.com:8080", "http://proxy.example.com:8080", false},
		{"socks5", "socks5://10.0.0.1:1080", "socks5://10.0.0.1:1080", false},
		{"no port", "http://proxy.example.com", "http://proxy.example.com", false},
		{"missing scheme", "proxy.example.com:8080", "", true},
		{"empty", "", "", true},
		{"garbage", "://nope", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := ParseEndpoint(tt.input, "u", "p")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.server, ep.Server)
			assert.Equal(t, "u", ep.Username)
			assert.Equal(t, "p", ep.Password)
		})
	}
}

func TestParseEndpointsSkipsMalformed(t *testing.T) {
	eps := ParseEndpoints([]string{"http://a:8080", "not a proxy", "http://b:8080"}, "", "")
	require.Len(t, eps, 2)
	assert.Equal(t, "http://a:8080", eps[0].Server)
	assert.Equal(t, "http://b:8080", eps[1].Server)
}

func TestRoundRobinOrder(t *testing.T) {
	r := NewRoundRobin([]Endpoint{{Server: "http://a"}, {Server: "http://b"}})
	ctx := context.Background()

	for i, want := range []string{"http://a", "http://b", "http://a", "http://b"} {
		ep, ok := r.Next(ctx)
		require.True(t, ok, "call %d", i)
		assert.Equal(t, want, ep.Server, "call %d", i)
	}
}

func TestRoundRobinEmptyPool(t *testing.T) {
	r := NewRoundRobin(nil)
	_, ok := r.Next(context.Background())
	assert.False(t, ok)
}

func TestRedisRotatorSharedCursor(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	pool := []Endpoint{{Server: "http://a"}, {Server: "http://b"}, {Server: "http://c"}}

	// Two rotator instances over the same key behave as one rotation.
	r1 := NewRedisRotator(client, "test:proxy-cursor", pool)
	r2 := NewRedisRotator(client, "test:proxy-cursor", pool)
	ctx := context.Background()

	got := make([]string, 0, 6)
	for i := 0; i < 3; i++ {
		ep, ok := r1.Next(ctx)
		require.True(t, ok)
		got = append(got, ep.Server)
		ep, ok = r2.Next(ctx)
		require.True(t, ok)
		got = append(got, ep.Server)
	}
	assert.Equal(t, []string{"http://a", "http://b", "http://c", "http://a", "http://b", "http://c"}, got)
}

func TestRedisRotatorFallsBackWhenUnavailable(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	pool := []Endpoint{{Server: "http://a"}, {Server: "http://b"}}
	r := NewRedisRotator(client, "test:proxy-cursor", pool)
	srv.Close()

	// Rotation keeps working off the local cursor.
	ep, ok := r.Next(context.Background())
	require.True(t, ok)
	assert.Contains(t, []string{"http://a", "http://b"}, ep.Server)
}

func TestRedisRotatorEmptyPool(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	r := NewRedisRotator(client, "test:proxy-cursor", nil)
	_, ok := r.Next(context.Background())
	assert.False(t, ok)
}
