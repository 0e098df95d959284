package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims はトークンから読み取った表示用の情報。
// 署名は検証しないため、認可の判断には使わないこと。
type Claims struct {
	// Subject はトークンの主体（通常はユーザーID）。
	Subject string
	// Username はユーザー名のクレーム。存在しなければ空。
	Username string
	// ExpiresAt は有効期限。存在しなければゼロ値。
	ExpiresAt time.Time
}

// tokenClaims はトークンのペイロードのうち表示に使う項目。
type tokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Claims は保存されているトークンをJWTとして解釈し、クレームを返す。
// トークンが存在しないかJWTとして読めない場合はfalseを返す。
func (s *Session) Claims(ctx context.Context) (Claims, bool) {
	token := s.Token(ctx)
	if token == "" {
		return Claims{}, false
	}
	return ParseClaims(token)
}

// ParseClaims はトークン文字列を署名検証なしでJWTとして解釈する。
func ParseClaims(token string) (Claims, bool) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return Claims{}, false
	}

	c := Claims{Subject: tc.Subject, Username: tc.Username}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c, true
}
