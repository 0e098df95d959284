// Package itemapp はセッションストアとAPIクライアントを組み合わせて、
// ユーザー登録・ログイン・ログアウトとアイテムのCRUDを行う呼び出し側の処理を提供する。
//
// 入力の事前チェックはネットワークに出る前に行い、結果はすべてStatusとして返す。
// 失敗時のメッセージは "Error (<status>): <detail>" の形式に揃える。
package itemapp
