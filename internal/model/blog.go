// Package model はドメインモデルを定義する。
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Blog はブログ記事を表す。
// IDはサーバーが採番する。Likesはサーバーが管理する正準値。
type Blog struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  int    `json:"likes"`
	Owner  Owner  `json:"user"`
}

// BlogDraft は新規ブログ作成時にユーザーが入力する項目。
type BlogDraft struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

// UpdatePayload はブログ更新（いいね）リクエストのボディ。
// ownerはIDのみをサーバーに送る（バックエンドのスキーマに合わせる）。
type UpdatePayload struct {
	Owner  string `json:"user"`
	Likes  int    `json:"likes"`
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

// Owner はブログ作成者の要約情報を表す。
// サーバーのレスポンスによっては完全な要約（id, username, name）ではなく
// IDのみ（文字列または{_id}形式）で返ってくることがあるため、
// 両方の形をデコードできるようにする。
type Owner struct {
	ID       string
	LegacyID string // 旧スキーマの _id フィールド
	Username string
	Name     string
}

// ownerJSON はオブジェクト形式のownerをデコードするための中間表現。
type ownerJSON struct {
	ID       string `json:"id"`
	LegacyID string `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// UnmarshalJSON はownerフィールドの3つの形（オブジェクト / ID文字列 / null）を受け付ける。
func (o *Owner) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*o = Owner{}
		return nil
	}

	// ID文字列のみの形
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return fmt.Errorf("failed to decode owner id: %w", err)
		}
		*o = Owner{ID: id}
		return nil
	}

	var raw ownerJSON
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("failed to decode owner: %w", err)
	}
	*o = Owner{
		ID:       raw.ID,
		LegacyID: raw.LegacyID,
		Username: raw.Username,
		Name:     raw.Name,
	}
	return nil
}

// MarshalJSON はownerを常にオブジェクト形式で出力する。
func (o Owner) MarshalJSON() ([]byte, error) {
	return json.Marshal(ownerJSON{
		ID:       o.ID,
		LegacyID: o.LegacyID,
		Username: o.Username,
		Name:     o.Name,
	})
}

// ResolvableID はサーバーに送るための所有者IDを返す。
// idフィールドを優先し、なければ旧スキーマの_idにフォールバックする。
func (o Owner) ResolvableID() string {
	if o.ID != "" {
		return o.ID
	}
	return o.LegacyID
}

// IsComplete はownerが表示に必要な完全な要約（username含む）を持つかを返す。
func (o Owner) IsComplete() bool {
	return o.Username != ""
}
