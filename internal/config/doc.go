// Package config はitemdeskクライアントの設定を読み込む。
//
// 設定は既定値から始め、YAMLファイル（任意）、環境変数の順に上書きし、
// 最後にValidateで検証する。エンドポイントのID付きパスは "{id}" を含む
// テンプレート文字列で指定する。
package config
