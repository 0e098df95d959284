// Package apitest はテスト用のスタブAPIサーバーを提供する。
//
// ユーザー登録・ログイン・アイテムのCRUDという、クライアントが利用する
// HTTPインターフェースだけを実装したGinサーバーで、データはメモリ上に保持する。
// クライアント側のパッケージを実際のHTTP通信でテストするために使う。
package apitest
