package httpclient

import (
	"encoding/json"
	"errors"
	"strings"
)

// StatusNone はレスポンスを受信できなかった場合のステータスコード。
const StatusNone = 0

// ErrNoPayload はデシリアライズ対象のペイロードがない場合のエラー。
var ErrNoPayload = errors.New("レスポンスにJSONペイロードがありません")

// Result はリクエストの結果を成功・失敗にかかわらず同じ形で表す。
type Result struct {
	// Success はHTTPステータスが2xxの場合にtrue。ペイロードの有無とは無関係。
	Success bool
	// StatusCode はHTTPステータスコード。レスポンスを受信できなかった場合はStatusNone。
	StatusCode int
	// Payload はレスポンスボディのJSON。ボディがないかJSONとして不正な場合はnil。
	Payload json.RawMessage
	// Err はレスポンスを受信できなかった原因。ログ出力用で、それ以外の場合はnil。
	Err error
}

// failure はレスポンスを受信できなかった場合の結果を返す。
func failure(err error) Result {
	return Result{Success: false, StatusCode: StatusNone, Payload: nil, Err: err}
}

// HasPayload はJSONペイロードがあるかどうかを返す。
func (r Result) HasPayload() bool {
	return r.Payload != nil
}

// Decode はペイロードをvにデシリアライズする。
func (r Result) Decode(v any) error {
	if r.Payload == nil {
		return ErrNoPayload
	}
	return json.Unmarshal(r.Payload, v)
}

// Detail はサーバーが返したエラー詳細を返す。
// "detail" フィールドを優先し、なければ "error" フィールドを使う。
// detailが文字列でない場合（検証エラーの配列など）はそのJSONを返す。
func (r Result) Detail() string {
	var body map[string]json.RawMessage
	if err := r.Decode(&body); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "error"} {
		raw, ok := body[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		if string(raw) != "null" {
			return string(raw)
		}
	}
	return ""
}
