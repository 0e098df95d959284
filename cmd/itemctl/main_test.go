package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/itemdesk/internal/apitest"
)

// cli はスタブAPIと一時ディレクトリのSQLiteセッションを使うテスト用の実行環境。
type cli struct {
	t       *testing.T
	config  string
	baseURL string
}

// newCLI はスタブAPIを起動し、それを向く設定ファイルを用意する。
func newCLI(t *testing.T) *cli {
	t.Helper()

	_, ts := apitest.Start(t, apitest.Options{})
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("session:\n  backend: sqlite\n  sqlite_path: %q\n", filepath.Join(dir, "session.db"))
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("設定ファイルの書き込みに失敗: %v", err)
	}
	return &cli{t: t, config: configPath, baseURL: ts.URL}
}

// exec はitemctlを実行し、終了コードと標準出力・標準エラーを返す。
func (c *cli) exec(args ...string) (int, string, string) {
	c.t.Helper()

	var stdout, stderr bytes.Buffer
	full := append([]string{"-config", c.config, "-api", c.baseURL}, args...)
	code := run(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// TestRunWorkflow は登録からログアウトまでの一連の操作を検証する。
func TestRunWorkflow(t *testing.T) {
	c := newCLI(t)

	code, _, stderr := c.exec("items", "list")
	if code != 1 || !strings.Contains(stderr, "Please log in to access this page.") {
		t.Fatalf("未ログインのitems list: code=%d, stderr=%q", code, stderr)
	}

	code, stdout, _ := c.exec("register", "-username", "alice", "-email", "a@example.com", "-password", "password1")
	if code != 0 || !strings.Contains(stdout, "Success! You can now log in.") {
		t.Fatalf("register: code=%d, stdout=%q", code, stdout)
	}

	code, stdout, _ = c.exec("login", "-username", "alice", "-password", "password1")
	if code != 0 || !strings.Contains(stdout, "Logged in!") {
		t.Fatalf("login: code=%d, stdout=%q", code, stdout)
	}

	// トークンはSQLiteに保存されているので別の実行でも有効
	code, stdout, _ = c.exec("status")
	if code != 0 || !strings.Contains(stdout, "Logged in") || !strings.Contains(stdout, "user:    alice") {
		t.Fatalf("status: code=%d, stdout=%q", code, stdout)
	}

	code, stdout, _ = c.exec("items", "create", "-name", "pen", "-description", "blue")
	if code != 0 || !strings.Contains(stdout, "Created.") {
		t.Fatalf("items create: code=%d, stdout=%q", code, stdout)
	}

	code, stdout, _ = c.exec("items", "list")
	if code != 0 {
		t.Fatalf("items list: code=%d", code)
	}
	fields := strings.Split(strings.TrimSpace(stdout), "\t")
	if len(fields) != 3 || fields[1] != "pen" || fields[2] != "blue" {
		t.Fatalf("items list: stdout=%q", stdout)
	}
	id := fields[0]

	code, stdout, _ = c.exec("items", "update", "-id", id, "-name", "pencil", "-description", "red")
	if code != 0 || !strings.Contains(stdout, "Saved.") {
		t.Fatalf("items update: code=%d, stdout=%q", code, stdout)
	}

	code, stdout, _ = c.exec("items", "delete", "-id", id)
	if code != 0 || !strings.Contains(stdout, "Deleted.") {
		t.Fatalf("items delete: code=%d, stdout=%q", code, stdout)
	}

	code, stdout, _ = c.exec("items", "list")
	if code != 0 || !strings.Contains(stdout, "No items found.") {
		t.Fatalf("空のitems list: code=%d, stdout=%q", code, stdout)
	}

	code, stdout, _ = c.exec("logout")
	if code != 0 || !strings.Contains(stdout, "Logged out.") {
		t.Fatalf("logout: code=%d, stdout=%q", code, stdout)
	}
	code, stdout, _ = c.exec("status")
	if code != 0 || strings.TrimSpace(stdout) != "Logged out" {
		t.Fatalf("logout後のstatus: code=%d, stdout=%q", code, stdout)
	}
}

// TestRunMetricsFile は-metrics-fileでリクエストの記録が書き出されることを検証する。
func TestRunMetricsFile(t *testing.T) {
	c := newCLI(t)
	metricsPath := filepath.Join(t.TempDir(), "itemctl.prom")

	code, _, _ := c.exec("-metrics-file", metricsPath, "register", "-username", "dave", "-email", "d@example.com", "-password", "password1")
	if code != 0 {
		t.Fatalf("register: code=%d", code)
	}
	// 失敗したログインも記録される
	code, _, _ = c.exec("-metrics-file", metricsPath, "login", "-username", "dave", "-password", "wrong-password")
	if code != 1 {
		t.Fatalf("login: code=%d, want 1", code)
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("メトリクスファイルの読み込みに失敗: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`itemdesk_client_requests_total{method="POST",status="401"} 1`,
		`itemdesk_client_request_duration_seconds_count{method="POST"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("メトリクスに %q が含まれていない:\n%s", want, text)
		}
	}
	// 実行ごとに上書きされるので、前回のregisterの記録は残らない
	if strings.Contains(text, `status="200"`) {
		t.Errorf("前回実行の記録が残っている:\n%s", text)
	}
}

// TestRunErrors は失敗時の終了コードと表示を検証する。
func TestRunErrors(t *testing.T) {
	t.Run("コマンドなしは使い方を表示すること", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), nil, &stdout, &stderr); code != 2 {
			t.Errorf("code = %d, want 2", code)
		}
		if !strings.Contains(stderr.String(), "usage: itemctl") {
			t.Errorf("stderr = %q", stderr.String())
		}
	})

	t.Run("未知のコマンドは2で終了すること", func(t *testing.T) {
		c := newCLI(t)
		if code, _, stderr := c.exec("fly"); code != 2 || !strings.Contains(stderr, "unknown command: fly") {
			t.Errorf("code = %d, stderr = %q", code, stderr)
		}
	})

	t.Run("ログイン失敗はサーバーのdetailを表示すること", func(t *testing.T) {
		c := newCLI(t)
		code, _, stderr := c.exec("login", "-username", "ghost", "-password", "password1")
		if code != 1 || !strings.Contains(stderr, "Error (401): Invalid username or password") {
			t.Errorf("code = %d, stderr = %q", code, stderr)
		}
	})

	t.Run("入力不足は事前チェックのメッセージを表示すること", func(t *testing.T) {
		c := newCLI(t)
		code, _, stderr := c.exec("register", "-username", "bob")
		if code != 1 || !strings.Contains(stderr, "All fields are required.") {
			t.Errorf("code = %d, stderr = %q", code, stderr)
		}
	})

	t.Run("不正なAPIのURLは設定エラーになること", func(t *testing.T) {
		c := newCLI(t)
		c.baseURL = "not-a-url"
		if code, _, stderr := c.exec("status"); code != 1 || !strings.Contains(stderr, "セッションストアの初期化に失敗") {
			t.Errorf("code = %d, stderr = %q", code, stderr)
		}
	})
}
