package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
)

// HeaderAuthorization は認証ヘッダーのキー。
const HeaderAuthorization = "Authorization"

// ErrInvalidOrigin はベースURLからオリジンを取り出せない場合のエラー。
var ErrInvalidOrigin = errors.New("オリジンを判定できないURLです")

// Backend はトークンの保存先を表す。
// Loadはトークンが存在しない場合に空文字列とnilを返す。
type Backend interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Session はトークンの読み取り・存在確認・保存・削除を提供するセッションストア。
// すべてのアクセスはこの型のメソッドを経由する。
type Session struct {
	backend Backend
}

// New はBackendを使うSessionを生成する。
func New(backend Backend) *Session {
	return &Session{backend: backend}
}

// Token は保存されているトークンを返す。存在しない場合は空文字列を返す。
// 保存先の読み取りに失敗した場合もログに残して空文字列を返す。
func (s *Session) Token(ctx context.Context) string {
	token, err := s.backend.Load(ctx)
	if err != nil {
		log.Printf("[Session] トークンの読み取りに失敗: %v", err)
		return ""
	}
	return token
}

// HasSession はトークンが保存されているかどうかを返す。
func (s *Session) HasSession(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// AuthorizationHeader はトークンがあれば "Authorization: Bearer <token>" を、
// なければ空のマップを返す。副作用はない。
func (s *Session) AuthorizationHeader(ctx context.Context) map[string]string {
	token := s.Token(ctx)
	if token == "" {
		return map[string]string{}
	}
	return map[string]string{HeaderAuthorization: "Bearer " + token}
}

// SetToken はトークンを保存する。既存のトークンは上書きされる。
// 空文字列はClearTokenと同じ扱いになる。
func (s *Session) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearToken(ctx)
	}
	if err := s.backend.Save(ctx, token); err != nil {
		return fmt.Errorf("トークンの保存に失敗: %w", err)
	}
	return nil
}

// ClearToken は保存されているトークンを削除する。
// トークンが存在しなくてもエラーにはならない。
func (s *Session) ClearToken(ctx context.Context) error {
	if err := s.backend.Delete(ctx); err != nil {
		return fmt.Errorf("トークンの削除に失敗: %w", err)
	}
	return nil
}

// OriginOf はベースURLからトークンの保存単位となるオリジンを取り出す。
// 例: "https://api.example.com/v1/" → "https://api.example.com"
func OriginOf(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("%q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%q: %w", baseURL, ErrInvalidOrigin)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}
