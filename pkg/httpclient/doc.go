// Package httpclient はトークン認証付きJSON APIへのリクエストを発行するクライアントを提供する。
//
// すべての呼び出しは結果をResultとして返し、通信エラー・HTTPエラー・
// レスポンスのパース失敗のいずれもGoのエラーやパニックとしては伝播しない。
// 呼び出し側はResult.Successとステータスコードを見て表示や次の処理を決める。
package httpclient
