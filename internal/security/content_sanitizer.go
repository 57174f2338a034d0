// FieldSanitizerService はユーザーが入力したブログのタイトル・著者・URL等の
// テキストフィールドをサニタイズし、保存データへのHTML混入を防ぐ。
// bluemondayのStrictPolicyを使用し、タグをすべて除去してプレーンテキストのみを残す。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// FieldSanitizerService はテキストフィールドのサニタイズ機能のインターフェースを定義する。
// ブログ作成・更新リクエストの保存前に使用される。
type FieldSanitizerService interface {
	// SanitizeField は入力文字列からHTMLタグをすべて除去して返す。
	// 前後の空白もトリムする。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeField(raw string) string
}

// fieldSanitizer はFieldSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type fieldSanitizer struct {
	policy *bluemonday.Policy
}

// NewFieldSanitizer はFieldSanitizerServiceの新しいインスタンスを生成する。
// ブログのフィールドは表示上プレーンテキストであり、
// 許可するタグは存在しないためStrictPolicyを使用する。
func NewFieldSanitizer() *fieldSanitizer {
	return &fieldSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeField は入力文字列からHTMLタグをすべて除去して返す。
func (s *fieldSanitizer) SanitizeField(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
