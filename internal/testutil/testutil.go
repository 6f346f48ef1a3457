//go:build integration

// Package testutil holds helpers for tests that publish to a live Redis.
// Point NETPEC_TEST_REDIS_ADDR at a disposable server; tests write to TestDB
// and flush it.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/newtron-network/netpec/pkg/util"
)

const (
	DefaultRedisAddr = "127.0.0.1:6379"
	TestDB           = 15
)

// RedisAddr returns NETPEC_TEST_REDIS_ADDR or DefaultRedisAddr
func RedisAddr() string {
	return util.CoalesceString(os.Getenv("NETPEC_TEST_REDIS_ADDR"), DefaultRedisAddr)
}

// RedisClient returns a client for TestDB that is closed when the test ends
func RedisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        RedisAddr(),
		DB:          TestDB,
		DialTimeout: 2 * time.Second,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

// SkipIfNoRedis skips t unless the test server answers PING
func SkipIfNoRedis(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := RedisClient(t).Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", RedisAddr(), err)
	}
}

// Context is canceled after 30s or when the test ends
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ProjectRoot returns the module root directory
func ProjectRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..")
}
