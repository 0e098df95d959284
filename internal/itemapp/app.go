package itemapp

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/nao1215/itemdesk/pkg/httpclient"
	"github.com/nao1215/itemdesk/pkg/session"
)

// tokenFields はログインレスポンスからトークンを探すフィールド名（優先順）。
var tokenFields = []string{"access_token", "token"}

// App はセッションとAPIクライアントを使って各操作を実行する。
type App struct {
	// client はAPIクライアント。
	client *httpclient.Client
	// session はトークンの保存先。
	session *session.Session
}

// New はAppを生成する。clientはsessionをAuthorizerとして設定済みであること。
func New(client *httpclient.Client, sess *session.Session) *App {
	return &App{client: client, session: sess}
}

// Session はAppが使うセッションを返す。
func (a *App) Session() *session.Session {
	return a.session
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput はログインの入力。
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register はユーザーを登録する。登録に成功してもログイン状態にはしない。
// ユーザー名とメールアドレスは前後の空白を取り除き、パスワードはそのまま送る。
func (a *App) Register(ctx context.Context, in RegisterInput) Status {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return precondition("All fields are required.")
	}

	res := a.client.Request(ctx, a.client.Endpoints().Register, httpclient.RequestOptions{
		Method: http.MethodPost,
		Body:   in,
	})
	if !res.Success {
		return requestFailed(res, "Registration failed.")
	}
	return ok("Success! You can now log in.", res.StatusCode)
}

// Login はログインし、返されたトークンをセッションに保存する。
// トークンは access_token を優先し、なければ token を使う。
// どちらも含まれない場合はErrNoTokenを返し、何も保存しない。
func (a *App) Login(ctx context.Context, in LoginInput) Status {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return precondition("Username and password required.")
	}

	res := a.client.Request(ctx, a.client.Endpoints().Login, httpclient.RequestOptions{
		Method: http.MethodPost,
		Body:   in,
	})
	if !res.Success {
		return requestFailed(res, "Login failed.")
	}

	token := extractToken(res)
	if token == "" {
		return Status{
			Message:    "No token returned by API. Check endpoint mapping.",
			StatusCode: res.StatusCode,
			Err:        ErrNoToken,
		}
	}
	if err := a.session.SetToken(ctx, token); err != nil {
		log.Printf("[ItemApp] トークンの保存に失敗: %v", err)
		return Status{Message: "Failed to store session.", StatusCode: res.StatusCode, Err: err}
	}
	return ok("Logged in!", res.StatusCode)
}

// extractToken はレスポンスからトークンを取り出す。見つからなければ空文字列を返す。
func extractToken(res httpclient.Result) string {
	var body map[string]any
	if err := res.Decode(&body); err != nil {
		return ""
	}
	for _, field := range tokenFields {
		if s, isString := body[field].(string); isString && s != "" {
			return s
		}
	}
	return ""
}

// Logout はセッションのトークンを削除する。ログインしていなくても成功する。
func (a *App) Logout(ctx context.Context) Status {
	if err := a.session.ClearToken(ctx); err != nil {
		return Status{Message: "Failed to clear session.", Err: err}
	}
	return ok("Logged out.", 0)
}

// RequireSession はログインしていなければErrNotAuthenticatedを返す。
// 認証が必要な画面やコマンドの入口で使う。
func (a *App) RequireSession(ctx context.Context) error {
	if !a.session.HasSession(ctx) {
		return ErrNotAuthenticated
	}
	return nil
}
