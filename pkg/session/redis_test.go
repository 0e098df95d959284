package session

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

// newTestRedisBackend はローカルのRedisに接続したRedisBackendを返す。
// Redisに接続できない場合はテストをスキップする。
func newTestRedisBackend(t *testing.T, origin string) *RedisBackend {
	t.Helper()

	addr := os.Getenv("ITEMDESK_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redisに接続できません: %v", err)
	}

	b := NewRedisBackend(client, origin)
	client.Del(ctx, b.key)
	t.Cleanup(func() {
		client.Del(ctx, b.key)
		client.Close()
	})
	return b
}

// TestRedisKey はRedisキーの形式を検証する。
func TestRedisKey(t *testing.T) {
	t.Parallel()

	got := RedisKey("https://api.example.com")
	want := "itemdesk:session:https://api.example.com:jwt"
	if got != want {
		t.Errorf("RedisKey() = %q, want %q", got, want)
	}
}

// TestRedisBackend はRedisBackendの保存・読み出し・削除を検証する。
func TestRedisBackend(t *testing.T) {
	b := newTestRedisBackend(t, "http://test.redis.local")
	s := New(b)
	ctx := context.Background()

	if s.HasSession(ctx) {
		t.Fatal("初期状態でHasSession() = true")
	}
	if err := s.SetToken(ctx, "redis-token"); err != nil {
		t.Fatalf("SetToken()でエラーが発生: %v", err)
	}
	if got := s.Token(ctx); got != "redis-token" {
		t.Errorf("Token() = %q, want %q", got, "redis-token")
	}
	if err := s.ClearToken(ctx); err != nil {
		t.Fatalf("ClearToken()でエラーが発生: %v", err)
	}
	if err := s.ClearToken(ctx); err != nil {
		t.Fatalf("2回目のClearToken()でエラーが発生: %v", err)
	}
	if s.HasSession(ctx) {
		t.Error("ClearToken()後もHasSession() = true")
	}
}
