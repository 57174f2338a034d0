// Package model はドメインモデルを定義する。
package model

// NotificationKind は通知の種別を表す。
type NotificationKind string

const (
	// NotificationSuccess は成功通知。
	NotificationSuccess NotificationKind = "success"
	// NotificationError はエラー通知。
	NotificationError NotificationKind = "error"
)

// Notification はユーザー向けの一時的なステータスメッセージを表す。
// 同時に表示されるのは常に1件のみで、一定時間経過後に自動消滅する。
type Notification struct {
	Message string
	Kind    NotificationKind
}
