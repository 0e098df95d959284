// itemdeskクライアントのエントリポイント。
// ユーザー登録・ログイン・ログアウトと、ログインユーザーのアイテムのCRUDを
// コマンドラインから行う。トークンは設定したバックエンドにAPIのオリジンごとに保存する。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/itemdesk/internal/config"
	"github.com/nao1215/itemdesk/internal/itemapp"
	"github.com/nao1215/itemdesk/pkg/httpclient"
	"github.com/nao1215/itemdesk/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

const usage = `usage: itemctl [-config path] [-api url] [-metrics-file path] <command> [flags]

commands:
  register -username U -email E -password P
  login    -username U -password P
  logout
  status
  items list
  items create -name N [-description D]
  items update -id ID -name N [-description D]
  items delete -id ID
`

func main() {
	log.SetPrefix("[itemctl] ")
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run はコマンドを実行し、終了コードを返す。
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("itemctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "設定ファイル（YAML）のパス")
	apiBase := fs.String("api", "", "APIのベースURL（設定・環境変数より優先）")
	metricsFile := fs.String("metrics-file", "", "終了時にメトリクスを書き出すファイル（設定・環境変数より優先）")
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "設定の読み込みに失敗: %v\n", err)
		return 1
	}
	if *apiBase != "" {
		cfg.API.BaseURL = *apiBase
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "設定の読み込みに失敗: %v\n", err)
			return 1
		}
	}

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "セッションストアの初期化に失敗: %v\n", err)
		return 1
	}
	defer closeBackend()

	if *metricsFile != "" {
		cfg.Metrics.TextfilePath = *metricsFile
	}
	opts := []httpclient.Option{
		httpclient.WithTimeout(cfg.Timeout()),
		httpclient.WithEndpoints(cfg.EndpointTable()),
	}
	var reg *prometheus.Registry
	if cfg.Metrics.TextfilePath != "" {
		reg = prometheus.NewRegistry()
		m, err := httpclient.NewMetrics(reg)
		if err != nil {
			fmt.Fprintf(stderr, "メトリクスの初期化に失敗: %v\n", err)
			return 1
		}
		opts = append(opts, httpclient.WithMetrics(m))
	}

	sess := session.New(backend)
	client := httpclient.New(cfg.API.BaseURL, append(opts, httpclient.WithAuthorizer(sess))...)
	app := itemapp.New(client, sess)

	cmd := &command{app: app, stdout: stdout, stderr: stderr}
	code := cmd.dispatch(ctx, fs.Arg(0), fs.Args()[1:])

	// コマンドの成否にかかわらず、実行したリクエストの記録を書き出す
	if reg != nil {
		if err := prometheus.WriteToTextfile(cfg.Metrics.TextfilePath, reg); err != nil {
			fmt.Fprintf(stderr, "メトリクスの書き出しに失敗: %v\n", err)
			if code == 0 {
				code = 1
			}
		}
	}
	return code
}

// openBackend は設定に応じたセッションのBackendを開き、後始末の関数とともに返す。
func openBackend(ctx context.Context, cfg *config.Config) (session.Backend, func(), error) {
	origin, err := session.OriginOf(cfg.API.BaseURL)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Session.Backend {
	case config.BackendMemory:
		return session.NewMemoryBackend(), func() {}, nil
	case config.BackendRedis:
		b, err := session.DialRedis(ctx, cfg.Session.RedisAddr, origin)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.Session.SQLitePath), 0o700); err != nil {
			return nil, nil, fmt.Errorf("ディレクトリの作成に失敗: %w", err)
		}
		b, err := session.OpenSQLite(ctx, cfg.Session.SQLitePath, origin)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	}
}

// command はサブコマンドの実行に必要なものをまとめる。
type command struct {
	app    *itemapp.App
	stdout io.Writer
	stderr io.Writer
}

// dispatch はサブコマンドを実行する。
func (c *command) dispatch(ctx context.Context, name string, args []string) int {
	switch name {
	case "register":
		return c.register(ctx, args)
	case "login":
		return c.login(ctx, args)
	case "logout":
		return c.report(c.app.Logout(ctx))
	case "status":
		return c.status(ctx)
	case "items":
		if len(args) == 0 {
			fmt.Fprint(c.stderr, usage)
			return 2
		}
		// 認証が必要なコマンドはセッションがなければ実行しない
		if err := c.app.RequireSession(ctx); errors.Is(err, itemapp.ErrNotAuthenticated) {
			fmt.Fprintln(c.stderr, "Please log in to access this page.")
			return 1
		}
		return c.items(ctx, args[0], args[1:])
	default:
		fmt.Fprintf(c.stderr, "unknown command: %s\n", name)
		fmt.Fprint(c.stderr, usage)
		return 2
	}
}

func (c *command) register(ctx context.Context, args []string) int {
	fs := c.flagSet("register")
	username := fs.String("username", "", "ユーザー名")
	email := fs.String("email", "", "メールアドレス")
	password := fs.String("password", "", "パスワード")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return c.report(c.app.Register(ctx, itemapp.RegisterInput{
		Username: *username,
		Email:    *email,
		Password: *password,
	}))
}

func (c *command) login(ctx context.Context, args []string) int {
	fs := c.flagSet("login")
	username := fs.String("username", "", "ユーザー名")
	password := fs.String("password", "", "パスワード")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return c.report(c.app.Login(ctx, itemapp.LoginInput{
		Username: *username,
		Password: *password,
	}))
}

// status はログイン状態を表示する。
func (c *command) status(ctx context.Context) int {
	sess := c.app.Session()
	if !sess.HasSession(ctx) {
		fmt.Fprintln(c.stdout, "Logged out")
		return 0
	}

	fmt.Fprintln(c.stdout, "Logged in")
	if claims, ok := sess.Claims(ctx); ok {
		if claims.Username != "" {
			fmt.Fprintf(c.stdout, "  user:    %s\n", claims.Username)
		}
		if claims.Subject != "" {
			fmt.Fprintf(c.stdout, "  subject: %s\n", claims.Subject)
		}
		if !claims.ExpiresAt.IsZero() {
			fmt.Fprintf(c.stdout, "  expires: %s\n", claims.ExpiresAt.Local().Format(time.RFC3339))
		}
	}
	return 0
}

func (c *command) items(ctx context.Context, sub string, args []string) int {
	fs := c.flagSet("items " + sub)
	id := fs.String("id", "", "アイテムID")
	name := fs.String("name", "", "アイテム名")
	description := fs.String("description", "", "アイテムの説明")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	switch sub {
	case "list":
		items, st := c.app.ListItems(ctx)
		if !st.OK {
			return c.report(st)
		}
		if len(items) == 0 {
			fmt.Fprintln(c.stdout, st.Message)
			return 0
		}
		for _, it := range items {
			fmt.Fprintf(c.stdout, "%s\t%s\t%s\n", it.ID, it.Name, it.Description)
		}
		return 0
	case "create":
		return c.report(c.app.CreateItem(ctx, *name, *description))
	case "update":
		return c.report(c.app.UpdateItem(ctx, *id, *name, *description))
	case "delete":
		return c.report(c.app.DeleteItem(ctx, *id))
	default:
		fmt.Fprintf(c.stderr, "unknown items command: %s\n", sub)
		return 2
	}
}

// flagSet はサブコマンド用のFlagSetを生成する。
func (c *command) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// report はStatusのメッセージを出力し、終了コードを返す。
func (c *command) report(st itemapp.Status) int {
	if st.OK {
		fmt.Fprintln(c.stdout, st.Message)
		return 0
	}
	fmt.Fprintln(c.stderr, st.Message)
	if st.Err != nil && !errors.Is(st.Err, itemapp.ErrMissingField) {
		log.Printf("%v", st.Err)
	}
	return 1
}
