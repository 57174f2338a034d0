// Package notify はユーザー向け通知の管理を提供する。
// 同時に表示される通知は常に1件のみで、一定時間経過後に自動消滅する。
package notify

import (
	"sync"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// DefaultTTL は通知の表示時間のデフォルト値。
const DefaultTTL = 5000 * time.Millisecond

// Broadcaster は単一スロットの通知と期限タイマーを管理する。
// Notifyを呼ぶたびに現在の通知を置き換え、タイマーを再スタートする。
// 生きているタイマーは常に1つだけで、新しいNotifyが前の期限を無効化する。
type Broadcaster struct {
	mu       sync.Mutex
	ttl      time.Duration
	current  *model.Notification
	timer    *time.Timer
	gen      uint64 // 置き換え済みタイマーの発火を無視するための世代カウンタ
	onChange func()
}

// NewBroadcaster はBroadcasterを生成する。
// ttlが0以下の場合はDefaultTTLを使用する。
// onChangeは通知の設定・消滅のたびに呼ばれる（再描画のトリガー用、nil可）。
func NewBroadcaster(ttl time.Duration, onChange func()) *Broadcaster {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Broadcaster{
		ttl:      ttl,
		onChange: onChange,
	}
}

// Notify は通知を設定し、期限タイマーを（再）スタートする。
// 表示中の通知があれば即座に置き換える。
func (b *Broadcaster) Notify(message string, kind model.NotificationKind) {
	b.mu.Lock()

	if b.timer != nil {
		b.timer.Stop()
	}

	b.gen++
	gen := b.gen
	b.current = &model.Notification{
		Message: message,
		Kind:    kind,
	}
	b.timer = time.AfterFunc(b.ttl, func() {
		b.expire(gen)
	})

	b.mu.Unlock()

	b.notifyChange()
}

// Current は現在表示中の通知を返す。表示中の通知がなければnilを返す。
func (b *Broadcaster) Current() *model.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return nil
	}
	n := *b.current
	return &n
}

// Stop は保留中の期限タイマーを停止し、表示中の通知を消去する。
// シャットダウン時に呼ぶ。
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
	b.current = nil
	b.mu.Unlock()
}

// expire は期限切れタイマーの発火を処理する。
// 発火までの間に新しいNotifyで置き換えられていた場合は何もしない。
func (b *Broadcaster) expire(gen uint64) {
	b.mu.Lock()
	if b.gen != gen {
		b.mu.Unlock()
		return
	}
	b.current = nil
	b.timer = nil
	b.mu.Unlock()

	b.notifyChange()
}

func (b *Broadcaster) notifyChange() {
	if b.onChange != nil {
		b.onChange()
	}
}
