package session

import (
	"context"
	"path/filepath"
	"testing"
)

// TestSQLiteBackend はSQLiteBackendの永続化を検証する。
func TestSQLiteBackend(t *testing.T) {
	t.Parallel()

	t.Run("開き直してもトークンが残っていること", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "session.db")
		ctx := context.Background()

		b1, err := OpenSQLite(ctx, path, "http://localhost:8000")
		if err != nil {
			t.Fatalf("OpenSQLite()でエラーが発生: %v", err)
		}
		if err := New(b1).SetToken(ctx, "persisted"); err != nil {
			t.Fatalf("SetToken()でエラーが発生: %v", err)
		}
		if err := b1.Close(); err != nil {
			t.Fatalf("Close()でエラーが発生: %v", err)
		}

		b2, err := OpenSQLite(ctx, path, "http://localhost:8000")
		if err != nil {
			t.Fatalf("2回目のOpenSQLite()でエラーが発生: %v", err)
		}
		t.Cleanup(func() { b2.Close() })

		if got := New(b2).Token(ctx); got != "persisted" {
			t.Errorf("Token() = %q, want %q", got, "persisted")
		}
	})

	t.Run("オリジンごとにトークンが分離されること", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "session.db")
		ctx := context.Background()

		a, err := OpenSQLite(ctx, path, "https://a.example.com")
		if err != nil {
			t.Fatalf("OpenSQLite()でエラーが発生: %v", err)
		}
		t.Cleanup(func() { a.Close() })
		b, err := OpenSQLite(ctx, path, "https://b.example.com")
		if err != nil {
			t.Fatalf("OpenSQLite()でエラーが発生: %v", err)
		}
		t.Cleanup(func() { b.Close() })

		if err := New(a).SetToken(ctx, "token-a"); err != nil {
			t.Fatalf("SetToken()でエラーが発生: %v", err)
		}
		if New(b).HasSession(ctx) {
			t.Error("別オリジンのセッションが見えている")
		}
		if err := New(b).ClearToken(ctx); err != nil {
			t.Fatalf("ClearToken()でエラーが発生: %v", err)
		}
		if got := New(a).Token(ctx); got != "token-a" {
			t.Errorf("Token() = %q, want %q", got, "token-a")
		}
	})

	t.Run("上書きと削除ができること", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		b, err := OpenSQLite(ctx, ":memory:", "http://localhost")
		if err != nil {
			t.Fatalf("OpenSQLite()でエラーが発生: %v", err)
		}
		t.Cleanup(func() { b.Close() })

		s := New(b)
		_ = s.SetToken(ctx, "first")
		_ = s.SetToken(ctx, "second")
		if got := s.Token(ctx); got != "second" {
			t.Errorf("Token() = %q, want %q", got, "second")
		}

		var count int
		if err := b.db.QueryRow("SELECT COUNT(*) FROM session_tokens").Scan(&count); err != nil {
			t.Fatalf("件数の取得に失敗: %v", err)
		}
		if count != 1 {
			t.Errorf("保存件数 = %d, want 1", count)
		}

		if err := s.ClearToken(ctx); err != nil {
			t.Fatalf("ClearToken()でエラーが発生: %v", err)
		}
		if err := s.ClearToken(ctx); err != nil {
			t.Fatalf("2回目のClearToken()でエラーが発生: %v", err)
		}
		if s.HasSession(ctx) {
			t.Error("HasSession() = true, want false")
		}
	})
}
