package itemapp

import (
	"errors"
	"fmt"

	"github.com/nao1215/itemdesk/pkg/httpclient"
)

var (
	// ErrMissingField は必須の入力が空の場合のエラー。
	ErrMissingField = errors.New("必須の入力が空です")
	// ErrNoToken はログイン成功のレスポンスにトークンが含まれない場合のエラー。
	// エンドポイントの設定誤りを示す。
	ErrNoToken = errors.New("レスポンスにトークンが含まれていません")
	// ErrNotAuthenticated はセッションがない状態で認証が必要な操作をした場合のエラー。
	ErrNotAuthenticated = errors.New("ログインしていません")
	// ErrRequestFailed はAPIが成功以外の結果を返した場合のエラー。
	ErrRequestFailed = errors.New("APIリクエストが失敗しました")
)

// Status は1つの操作の結果を表示用にまとめたもの。
type Status struct {
	// OK は操作が成功したかどうか。
	OK bool
	// Message は利用者に表示する1行のメッセージ。
	Message string
	// StatusCode はAPIのHTTPステータスコード。APIを呼んでいない場合は0。
	StatusCode int
	// Err は失敗の原因。成功時はnil。
	Err error
}

// ok は成功のStatusを返す。
func ok(msg string, code int) Status {
	return Status{OK: true, Message: msg, StatusCode: code}
}

// precondition は事前チェックで失敗したStatusを返す。
func precondition(msg string) Status {
	return Status{Message: msg, Err: fmt.Errorf("%s: %w", msg, ErrMissingField)}
}

// requestFailed はAPI呼び出しの失敗を "Error (<status>): <detail>" 形式のStatusにする。
// detailはサーバーのdetail/errorフィールドを優先し、なければfallbackを使う。
func requestFailed(res httpclient.Result, fallback string) Status {
	detail := res.Detail()
	if detail == "" {
		detail = fallback
	}
	err := fmt.Errorf("status=%d: %w", res.StatusCode, ErrRequestFailed)
	if res.Err != nil {
		err = fmt.Errorf("%w: %w", ErrRequestFailed, res.Err)
	}
	return Status{
		Message:    fmt.Sprintf("Error (%d): %s", res.StatusCode, detail),
		StatusCode: res.StatusCode,
		Err:        err,
	}
}
