//go:build integration

package testutil

import (
	"strings"
	"testing"
)

// Key joins a table name and key parts the way the store does:
// NETPEC_PEC|<analysis>|<pec>.
func Key(table string, parts ...string) string {
	return strings.Join(append([]string{table}, parts...), "|")
}

// FlushDB empties TestDB now and again when the test ends.
func FlushDB(t *testing.T) {
	t.Helper()
	client := RedisClient(t)
	flush := func() {
		if err := client.FlushDB(Context(t)).Err(); err != nil {
			t.Errorf("flushing DB %d: %v", TestDB, err)
		}
	}
	flush()
	t.Cleanup(flush)
}

// ReadEntry returns the fields of the hash at table|parts...
func ReadEntry(t *testing.T, table string, parts ...string) map[string]string {
	t.Helper()
	key := Key(table, parts...)
	vals, err := RedisClient(t).HGetAll(Context(t), key).Result()
	if err != nil {
		t.Fatalf("reading %s: %v", key, err)
	}
	return vals
}

// EntryExists reports whether table|parts... exists
func EntryExists(t *testing.T, table string, parts ...string) bool {
	t.Helper()
	key := Key(table, parts...)
	n, err := RedisClient(t).Exists(Context(t), key).Result()
	if err != nil {
		t.Fatalf("checking %s: %v", key, err)
	}
	return n == 1
}

// KeyCount returns the number of keys in TestDB
func KeyCount(t *testing.T) int {
	t.Helper()
	n, err := RedisClient(t).DBSize(Context(t)).Result()
	if err != nil {
		t.Fatalf("counting keys in DB %d: %v", TestDB, err)
	}
	return int(n)
}
