// Package endpoint はAPIの論理操作名とリクエストパスの対応表を提供する。
//
// 静的なパスはそのまま文字列として保持し、ID付きのパス（更新・削除）は
// "{id}" プレースホルダを含むテンプレートとして保持する。
// 対応表は設定時に一度だけ構築され、実行中に変更されない。
package endpoint
