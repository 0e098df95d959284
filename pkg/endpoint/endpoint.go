package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Placeholder はテンプレート中でIDに置き換えられる文字列。
const Placeholder = "{id}"

// ErrMissingPlaceholder はテンプレートに "{id}" が含まれない場合のエラー。
var ErrMissingPlaceholder = errors.New("テンプレートに{id}が含まれていません")

// Template はIDを1つ受け取ってパスを生成するテンプレート。
type Template struct {
	// raw は "{id}" を含む元のテンプレート文字列。
	raw string
}

// NewTemplate はテンプレート文字列からTemplateを生成する。
func NewTemplate(raw string) (Template, error) {
	if !strings.Contains(raw, Placeholder) {
		return Template{}, fmt.Errorf("%q: %w", raw, ErrMissingPlaceholder)
	}
	return Template{raw: raw}, nil
}

// MustTemplate はNewTemplateと同じだが、不正なテンプレートでパニックする。
// パッケージ変数の初期化でのみ使用する。
func MustTemplate(raw string) Template {
	t, err := NewTemplate(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Path はIDを埋め込んだパスを返す。IDは文字列または整数を受け付ける。
// IDはパスセグメントとしてエスケープされる。
func (t Template) Path(id any) string {
	return strings.ReplaceAll(t.raw, Placeholder, url.PathEscape(FormatID(id)))
}

// String は元のテンプレート文字列を返す。
func (t Template) String() string {
	return t.raw
}

// FormatID はアイテムIDを文字列に変換する。
// JSONから読み込んだ数値（float64）は整数として整形する。
func FormatID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprint(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Table は論理操作ごとのリクエストパスの対応表。
type Table struct {
	// Register はユーザー登録のパス（POST）。
	Register string
	// Login はログインのパス（POST）。
	Login string
	// ItemsList はアイテム一覧取得のパス（GET）。
	ItemsList string
	// ItemsCreate はアイテム作成のパス（POST）。
	ItemsCreate string
	// ItemsUpdate はアイテム更新のパステンプレート（PUT）。
	ItemsUpdate Template
	// ItemsDelete はアイテム削除のパステンプレート（DELETE）。
	ItemsDelete Template
}

// Default はAPIの標準的なルーティングに合わせた対応表を返す。
func Default() Table {
	return Table{
		Register:    "/user/register/",
		Login:       "/user/login/",
		ItemsList:   "/item/read/",
		ItemsCreate: "/item/create/",
		ItemsUpdate: MustTemplate("/item/update/{id}"),
		ItemsDelete: MustTemplate("/item/delete/{id}"),
	}
}

// Spec は設定ファイルから読み込む対応表の文字列表現。
type Spec struct {
	Register    string `yaml:"register"`
	Login       string `yaml:"login"`
	ItemsList   string `yaml:"items_list"`
	ItemsCreate string `yaml:"items_create"`
	ItemsUpdate string `yaml:"items_update"`
	ItemsDelete string `yaml:"items_delete"`
}

// DefaultSpec はDefaultの対応表を文字列表現で返す。
func DefaultSpec() Spec {
	d := Default()
	return Spec{
		Register:    d.Register,
		Login:       d.Login,
		ItemsList:   d.ItemsList,
		ItemsCreate: d.ItemsCreate,
		ItemsUpdate: d.ItemsUpdate.String(),
		ItemsDelete: d.ItemsDelete.String(),
	}
}

// Build は文字列表現から対応表を構築する。
// 空のフィールドはDefaultの値で補完する。
func (s Spec) Build() (Table, error) {
	d := DefaultSpec()
	pick := func(v, fallback string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return v
	}

	update, err := NewTemplate(pick(s.ItemsUpdate, d.ItemsUpdate))
	if err != nil {
		return Table{}, fmt.Errorf("items_updateが不正です: %w", err)
	}
	del, err := NewTemplate(pick(s.ItemsDelete, d.ItemsDelete))
	if err != nil {
		return Table{}, fmt.Errorf("items_deleteが不正です: %w", err)
	}

	return Table{
		Register:    pick(s.Register, d.Register),
		Login:       pick(s.Login, d.Login),
		ItemsList:   pick(s.ItemsList, d.ItemsList),
		ItemsCreate: pick(s.ItemsCreate, d.ItemsCreate),
		ItemsUpdate: update,
		ItemsDelete: del,
	}, nil
}
