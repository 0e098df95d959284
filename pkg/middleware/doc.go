// Package middleware はテスト用スタブAPIで使用するGinミドルウェアを提供する。
//
// Bearerトークンの発行と検証、パニックリカバリを含む。
// エラーレスポンスは {"detail": "..."} の形式で返す。
package middleware
