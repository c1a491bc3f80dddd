package redis

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"moodchat/internal/config"
)

func TestNameStoreRoundTrip(t *testing.T) {
	client := newTestClient(t)
	defer client.Close()

	ctx := context.Background()
	store := NewNameStore(client, fmt.Sprintf("moodchat:test:%d", time.Now().UnixNano()))
	defer store.Forget(ctx)

	if _, ok, err := store.Name(ctx); err != nil || ok {
		t.Fatalf("expected no name yet, ok=%v err=%v", ok, err)
	}
	if err := store.SetName(ctx, "Ada"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	name, ok, err := store.Name(ctx)
	if err != nil || !ok || name != "Ada" {
		t.Fatalf("unexpected name %q ok=%v err=%v", name, ok, err)
	}
	if err := store.Forget(ctx); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if _, ok, _ := store.Name(ctx); ok {
		t.Fatalf("name should be gone after forget")
	}
}

func TestNilClientErrors(t *testing.T) {
	var c *Client
	if _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi port: %v", err)
	}
	client, err := NewRedisClient(context.Background(), config.RedisConfig{Host: host, Port: port})
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	return client
}
