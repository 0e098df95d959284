// Package session は認証トークンの永続化と参照を担うセッションストアを提供する。
//
// トークンはAPIのオリジン（scheme://host[:port]）ごとに高々1つだけ保存される。
// トークンが存在しないことは未認証を意味する。有効期限の判定や更新は行わず、
// トークンを使ったリクエストが認証エラーになるまでは有効なものとして扱う。
//
// 保存先はBackendとして差し替えられる。テスト用のメモリ、SQLiteファイル、
// Redisの3種類を用意している。
package session
