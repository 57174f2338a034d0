// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError はAPI呼び出しの失敗を表す。
// HTTPステータスとサーバーが返したメッセージを保持する。
// メッセージはこの層では不透明な診断情報であり、
// ユーザーに表示する文言は呼び出し元が決める。
type RequestError struct {
	StatusCode int
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *RequestError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsAuthFailure は認証失敗（401）かどうかを判定する。
func IsAuthFailure(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode == http.StatusUnauthorized
	}
	return false
}
