package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestParseClaims はトークンからのクレーム読み取りを検証する。
func TestParseClaims(t *testing.T) {
	t.Parallel()

	t.Run("JWTからユーザー名と有効期限を読み取れること", func(t *testing.T) {
		t.Parallel()

		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":      "user-1",
			"username": "alice",
			"exp":      exp.Unix(),
		})
		signed, err := token.SignedString([]byte("any-secret"))
		if err != nil {
			t.Fatalf("テスト用JWTの署名に失敗: %v", err)
		}

		s := New(NewMemoryBackend())
		ctx := context.Background()
		_ = s.SetToken(ctx, signed)

		c, ok := s.Claims(ctx)
		if !ok {
			t.Fatal("Claims()がfalseを返した")
		}
		if c.Subject != "user-1" {
			t.Errorf("Subject = %q, want %q", c.Subject, "user-1")
		}
		if c.Username != "alice" {
			t.Errorf("Username = %q, want %q", c.Username, "alice")
		}
		if !c.ExpiresAt.Equal(exp) {
			t.Errorf("ExpiresAt = %v, want %v", c.ExpiresAt, exp)
		}
	})

	t.Run("JWTでないトークンはfalseになること", func(t *testing.T) {
		t.Parallel()

		if _, ok := ParseClaims("opaque-token"); ok {
			t.Error("ParseClaims()がtrueを返した")
		}
	})

	t.Run("トークンがない場合はfalseになること", func(t *testing.T) {
		t.Parallel()

		s := New(NewMemoryBackend())
		if _, ok := s.Claims(context.Background()); ok {
			t.Error("Claims()がtrueを返した")
		}
	})
}
