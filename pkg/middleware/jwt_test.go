package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// newAuthRouter はBearerAuthを適用したテスト用ルーターを生成する。
func newAuthRouter() *gin.Engine {
	router := gin.New()
	router.Use(BearerAuth(testSecret))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	return router
}

// TestIssueToken はIssueToken関数を検証する。
func TestIssueToken(t *testing.T) {
	t.Parallel()

	t.Run("クレームが正しく設定されること", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		tokenStr, err := IssueToken(testSecret, "user-123", "alice", time.Hour)
		if err != nil {
			t.Fatalf("IssueToken()でエラーが発生: %v", err)
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		})
		if err != nil || !token.Valid {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if claims.Subject != "user-123" {
			t.Errorf("Subject = %q, want %q", claims.Subject, "user-123")
		}
		if claims.Username != "alice" {
			t.Errorf("Username = %q, want %q", claims.Username, "alice")
		}
		if claims.Issuer != Issuer {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, Issuer)
		}
		// 有効期限が1時間後の前後1分以内であること
		expected := before.Add(time.Hour)
		if d := claims.ExpiresAt.Time.Sub(expected); d < -time.Minute || d > time.Minute {
			t.Errorf("ExpiresAt = %v, want about %v", claims.ExpiresAt.Time, expected)
		}
	})

	t.Run("異なるシークレットでは検証に失敗すること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := IssueToken(testSecret, "user-wrong", "bob", time.Hour)
		if err != nil {
			t.Fatalf("IssueToken()でエラーが発生: %v", err)
		}
		_, err = jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
			return []byte("wrong-secret"), nil
		})
		if err == nil {
			t.Fatal("異なるシークレットでの検証がエラーを返すべき")
		}
	})
}

// TestBearerAuth はBearerAuthミドルウェアを検証する。
func TestBearerAuth(t *testing.T) {
	t.Parallel()

	t.Run("有効なトークンでユーザーIDが設定されること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := IssueToken(testSecret, "user-ok", "carol", time.Hour)
		if err != nil {
			t.Fatalf("IssueToken()でエラーが発生: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		newAuthRouter().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["user_id"] != "user-ok" {
			t.Errorf("body = %v", body)
		}
	})

	expired, err := IssueToken(testSecret, "user-exp", "dave", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken()でエラーが発生: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantDetail string
	}{
		{name: "Authorizationヘッダーが無い場合401が返ること", header: "", wantDetail: "Not authenticated"},
		{name: "Bearer形式でない場合401が返ること", header: "Basic abc", wantDetail: "Invalid authentication scheme"},
		{name: "トークンが空の場合401が返ること", header: "Bearer ", wantDetail: "Invalid authentication scheme"},
		{name: "不正なトークンの場合401が返ること", header: "Bearer not-a-jwt", wantDetail: "Could not validate credentials"},
		{name: "期限切れのトークンの場合401が返ること", header: "Bearer " + expired, wantDetail: "Could not validate credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newAuthRouter().ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("レスポンスボディのパースに失敗: %v", err)
			}
			if body["detail"] != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body["detail"], tt.wantDetail)
			}
		})
	}
}
