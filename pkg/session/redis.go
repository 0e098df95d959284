package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix はトークンを保存するRedisキーの接頭辞。
const RedisKeyPrefix = "itemdesk:session:"

// RedisBackend はRedisにオリジンごとのトークンを保存するBackend。
// キーは itemdesk:session:<origin>:jwt で、TTLは設定しない。
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend は接続済みのRedisクライアントを使うRedisBackendを生成する。
func NewRedisBackend(client *redis.Client, origin string) *RedisBackend {
	return &RedisBackend{client: client, key: RedisKey(origin)}
}

// DialRedis はRedisに接続して疎通を確認し、RedisBackendを返す。
func DialRedis(ctx context.Context, addr, origin string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisへの接続に失敗: %w", err)
	}
	return NewRedisBackend(client, origin), nil
}

// RedisKey はオリジンに対応するRedisキーを返す。
func RedisKey(origin string) string {
	return RedisKeyPrefix + origin + ":jwt"
}

// Load はトークンを返す。キーが存在しなければ空文字列を返す。
func (b *RedisBackend) Load(ctx context.Context) (string, error) {
	token, err := b.client.Get(ctx, b.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

// Save はトークンを上書き保存する。
func (b *RedisBackend) Save(ctx context.Context, token string) error {
	return b.client.Set(ctx, b.key, token, 0).Err()
}

// Delete はトークンを削除する。
func (b *RedisBackend) Delete(ctx context.Context) error {
	return b.client.Del(ctx, b.key).Err()
}

// Close はRedisクライアントを閉じる。
func (b *RedisBackend) Close() error {
	return b.client.Close()
}
