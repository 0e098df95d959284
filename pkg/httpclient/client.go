package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/itemdesk/pkg/endpoint"
)

// DefaultTimeout はリクエスト全体のタイムアウトの既定値。
const DefaultTimeout = 30 * time.Second

// HeaderRequestID はリクエストの相関IDを運ぶヘッダーキー。
const HeaderRequestID = "X-Request-ID"

// Authorizer はリクエストに付与する認証ヘッダーを提供する。
// session.Sessionがこれを満たす。
type Authorizer interface {
	AuthorizationHeader(ctx context.Context) map[string]string
}

// Client はAPIへのリクエストを発行するクライアント。
// 複数のゴルーチンから同時に使用できる。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// authorizer は認証ヘッダーの取得元。nilの場合は認証ヘッダーを付与しない。
	authorizer Authorizer
	// metrics はリクエストの計測先。nilの場合は計測しない。
	metrics *Metrics

	mu sync.RWMutex
	// baseURL は接続先APIのベースURL。
	baseURL string
	// endpoints は論理操作とパスの対応表。
	endpoints endpoint.Table
}

// Option はClientの生成オプション。
type Option func(*Client)

// WithAuthorizer は認証ヘッダーの取得元を設定する。
func WithAuthorizer(a Authorizer) Option {
	return func(c *Client) { c.authorizer = a }
}

// WithHTTPClient は内部で使用するHTTPクライアントを差し替える。
// hcは複製して使うため、後続のWithTimeoutは呼び出し元のクライアントに影響しない。
// nilの場合は何もしない。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc == nil {
			return
		}
		copied := *hc
		c.httpClient = &copied
	}
}

// WithTimeout はリクエストのタイムアウトを設定する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithMetrics はリクエストの計測先を設定する。
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithEndpoints はエンドポイントの対応表を設定する。
func WithEndpoints(t endpoint.Table) Option {
	return func(c *Client) { c.endpoints = t }
}

// New は新しいクライアントを生成する。
// baseURLには接続先APIのベースURL（例: "http://localhost:8000"）を指定する。
// エンドポイントの対応表は指定がなければendpoint.Defaultを使う。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL:   normalizeBaseURL(baseURL),
		endpoints: endpoint.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configure は接続先とエンドポイントの対応表を設定し直す。
// ネットワークには一切アクセスせず、何度呼んでもよい。
func (c *Client) Configure(baseURL string, endpoints endpoint.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = normalizeBaseURL(baseURL)
	c.endpoints = endpoints
}

// BaseURL は現在のベースURLを返す。
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Endpoints は現在のエンドポイントの対応表を返す。
func (c *Client) Endpoints() endpoint.Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoints
}

// RequestOptions はRequestに渡すオプション。
type RequestOptions struct {
	// Method はHTTPメソッド。空の場合はGET。
	Method string
	// Body はJSONにシリアライズして送るボディ。nilの場合はボディを送らない。
	Body any
	// Authorize がtrueの場合、Authorizerの認証ヘッダーを付与する。
	Authorize bool
}

// Request はベースURLにpathを連結したURLへリクエストを送り、結果を正規化して返す。
// 通信エラーやボディのシリアライズ失敗はSuccess=false、StatusCode=StatusNoneの結果になる。
func (c *Client) Request(ctx context.Context, path string, opts RequestOptions) Result {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	started := time.Now()

	result := c.do(ctx, method, path, opts)
	c.metrics.observe(method, result.StatusCode, time.Since(started))
	return result
}

// do はリクエストの作成・送信・レスポンスの正規化を行う。
func (c *Client) do(ctx context.Context, method, path string, opts RequestOptions) Result {
	var bodyReader io.Reader
	if opts.Body != nil {
		jsonBody, err := json.Marshal(opts.Body)
		if err != nil {
			return failure(fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err))
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	url := c.BaseURL() + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return failure(fmt.Errorf("HTTPリクエストの作成に失敗: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderRequestID, requestIDFrom(ctx))

	if opts.Authorize && c.authorizer != nil {
		for k, v := range c.authorizer.AuthorizationHeader(ctx) {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[HTTPClient] リクエストの送信に失敗: method=%s, url=%s, request_id=%s, error=%v",
			method, url, req.Header.Get(HeaderRequestID), err)
		return failure(fmt.Errorf("HTTPリクエストの送信に失敗: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		// ステータスは受信済みなので、ボディが読めなくても結果として返す
		log.Printf("[HTTPClient] レスポンスの読み取りに失敗: url=%s, error=%v", url, err)
		respBody = nil
	}

	return Result{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Payload:    parsePayload(respBody),
	}
}

// parsePayload はボディが妥当なJSONであればそのまま返し、そうでなければnilを返す。
func parsePayload(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil
	}
	return json.RawMessage(trimmed)
}

// normalizeBaseURL は末尾のスラッシュを取り除く。
func normalizeBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

// contextKey はコンテキストキーの型。
type contextKey string

// contextKeyRequestID はコンテキストにリクエストIDを格納するためのキー。
const contextKeyRequestID contextKey = "request_id"

// WithRequestID はコンテキストにリクエストIDを設定する。
// 設定しない場合はリクエストごとに新しいUUIDが割り当てられる。
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// requestIDFrom はコンテキストのリクエストIDを返す。なければ新しく生成する。
func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}
