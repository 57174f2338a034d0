// Package ui はターミナル上の対話型クライアントを提供する。
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/preview"
)

// SessionController はREPLが必要とするセッション操作のインターフェース。
type SessionController interface {
	// Restore は永続化されたセッションを復元する。
	Restore(ctx context.Context) (*model.Session, error)
	// Login は資格情報でログインする。
	Login(ctx context.Context, username, password string) (*model.Session, error)
	// Logout はセッションを破棄する。
	Logout(ctx context.Context) error
	// Current は現在のセッションを返す。未認証の場合はnil。
	Current() *model.Session
	// IsActive は認証済みかどうかを返す。
	IsActive() bool
}

// CollectionController はREPLが必要とするブログコレクション操作のインターフェース。
type CollectionController interface {
	// LoadAll はサーバーから全ブログを取得する。
	LoadAll(ctx context.Context) error
	// Create は新規ブログを作成する。
	Create(ctx context.Context, draft model.BlogDraft) (*model.Blog, error)
	// Like は指定ブログにいいねを付ける。
	Like(ctx context.Context, id string) (*model.Blog, error)
	// Delete は確認の上で指定ブログを削除する。
	Delete(ctx context.Context, id string, confirm func(title, author string) bool) error
	// SortedView はいいね数の降順でソートされたビューを返す。
	SortedView() []model.Blog
	// CanDelete は現在のユーザーが指定ブログを削除できるかを返す。
	CanDelete(blog *model.Blog) bool
}

// NotificationSource は現在表示すべき通知を返すインターフェース。
type NotificationSource interface {
	Current() *model.Notification
}

// PreviewFetcher はブログURLのページプレビュー取得のインターフェース。
type PreviewFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*preview.PagePreview, error)
}

// REPL はターミナル上の対話ループを実装する。
type REPL struct {
	in         *bufio.Scanner
	out        io.Writer
	session    SessionController
	collection CollectionController
	notifier   NotificationSource
	preview    PreviewFetcher

	// 直近に表示した一覧。番号指定コマンドの解決に使う。
	view []model.Blog
}

// NewREPL はREPLを生成する。
func NewREPL(
	in io.Reader,
	out io.Writer,
	session SessionController,
	collection CollectionController,
	notifier NotificationSource,
	previewFetcher PreviewFetcher,
) *REPL {
	return &REPL{
		in:         bufio.NewScanner(in),
		out:        out,
		session:    session,
		collection: collection,
		notifier:   notifier,
		preview:    previewFetcher,
	}
}

// Run は対話ループを実行する。入力のEOFまたはquitコマンドで終了する。
func (r *REPL) Run(ctx context.Context) error {
	// 前回のセッションがあれば復元する
	if sess, err := r.session.Restore(ctx); err == nil && sess != nil {
		fmt.Fprintf(r.out, "Logged in as %s\n", sess.Name)
	}

	for {
		if !r.session.IsActive() {
			if !r.loginLoop(ctx) {
				return nil
			}
		}

		if err := r.collection.LoadAll(ctx); err != nil {
			fmt.Fprintln(r.out, "Could not load blogs:", err)
		}
		r.flushNotification()
		r.renderList()

		if !r.commandLoop(ctx) {
			return nil
		}
	}
}

// loginLoop はログインに成功するまでユーザー名とパスワードを促す。
// 入力のEOFでfalseを返す。
func (r *REPL) loginLoop(ctx context.Context) bool {
	fmt.Fprintln(r.out, "log in to application")
	for {
		username, ok := r.prompt("username: ")
		if !ok {
			return false
		}
		password, ok := r.prompt("password: ")
		if !ok {
			return false
		}

		if _, err := r.session.Login(ctx, username, password); err != nil {
			r.flushNotification()
			continue
		}
		r.flushNotification()
		return true
	}
}

// commandLoop はログイン中のコマンドを処理する。
// quitでfalse、logoutでtrue（外側のループが再ログインへ）を返す。
func (r *REPL) commandLoop(ctx context.Context) bool {
	for {
		line, ok := r.prompt("> ")
		if !ok {
			return false
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "list":
			if err := r.collection.LoadAll(ctx); err != nil {
				fmt.Fprintln(r.out, "Could not load blogs:", err)
			}
			r.flushNotification()
			r.renderList()
		case "view":
			r.handleView(args)
		case "like":
			r.handleLike(ctx, args)
		case "remove":
			r.handleRemove(ctx, args)
		case "new":
			r.handleNew(ctx)
		case "peek":
			r.handlePeek(ctx, args)
		case "logout":
			if err := r.session.Logout(ctx); err != nil {
				fmt.Fprintln(r.out, "Logout failed:", err)
			}
			r.flushNotification()
			return true
		case "quit", "exit":
			return false
		case "help":
			r.printHelp()
		default:
			fmt.Fprintf(r.out, "Unknown command %q. Type help for a list of commands.\n", cmd)
		}
	}
}

// handleView は指定番号のブログの詳細を表示する。
func (r *REPL) handleView(args []string) {
	b := r.resolveBlog(args)
	if b == nil {
		return
	}

	fmt.Fprintf(r.out, "%s by %s\n", b.Title, b.Author)
	fmt.Fprintf(r.out, "  url:   %s\n", b.URL)
	fmt.Fprintf(r.out, "  likes: %d\n", b.Likes)
	if b.Owner.Name != "" {
		fmt.Fprintf(r.out, "  added by %s\n", b.Owner.Name)
	}
	if r.collection.CanDelete(b) {
		fmt.Fprintln(r.out, "  (you can remove this blog)")
	}
}

// handleLike は指定番号のブログにいいねを付ける。
func (r *REPL) handleLike(ctx context.Context, args []string) {
	b := r.resolveBlog(args)
	if b == nil {
		return
	}

	if updated, err := r.collection.Like(ctx, b.ID); err == nil {
		fmt.Fprintf(r.out, "Liked %s, now %d likes\n", updated.Title, updated.Likes)
	}
	r.flushNotification()
	r.renderList()
}

// handleRemove は指定番号のブログを確認の上で削除する。
func (r *REPL) handleRemove(ctx context.Context, args []string) {
	b := r.resolveBlog(args)
	if b == nil {
		return
	}

	if !r.collection.CanDelete(b) {
		fmt.Fprintln(r.out, "Only the creator can remove a blog.")
		return
	}

	confirm := func(title, author string) bool {
		answer, ok := r.prompt(fmt.Sprintf("Remove blog %q by %s? [y/N] ", title, author))
		if !ok {
			return false
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	}

	if err := r.collection.Delete(ctx, b.ID, confirm); err == nil {
		r.flushNotification()
		r.renderList()
		return
	}
	r.flushNotification()
}

// handleNew は入力されたタイトル・著者・URLで新規ブログを作成する。
func (r *REPL) handleNew(ctx context.Context) {
	title, ok := r.prompt("title: ")
	if !ok {
		return
	}
	author, ok := r.prompt("author: ")
	if !ok {
		return
	}
	url, ok := r.prompt("url: ")
	if !ok {
		return
	}

	if _, err := r.collection.Create(ctx, model.BlogDraft{
		Title:  title,
		Author: author,
		URL:    url,
	}); err == nil {
		r.flushNotification()
		r.renderList()
		return
	}
	r.flushNotification()
}

// handlePeek は指定番号のブログのページプレビューを取得して表示する。
func (r *REPL) handlePeek(ctx context.Context, args []string) {
	b := r.resolveBlog(args)
	if b == nil {
		return
	}

	p, err := r.preview.Fetch(ctx, b.URL)
	if err != nil {
		fmt.Fprintln(r.out, "Could not fetch preview:", err)
		return
	}

	if p.Title != "" {
		fmt.Fprintf(r.out, "%s\n", p.Title)
	} else {
		fmt.Fprintf(r.out, "%s\n", p.URL)
	}
	if p.Description != "" {
		fmt.Fprintf(r.out, "  %s\n", p.Description)
	}
}

// resolveBlog は番号引数を直近の一覧のブログに解決する。
func (r *REPL) resolveBlog(args []string) *model.Blog {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Usage: <command> <number>")
		return nil
	}

	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(r.view) {
		fmt.Fprintf(r.out, "No blog with number %q. Type list to refresh.\n", args[0])
		return nil
	}

	b := r.view[n-1]
	return &b
}

// renderList はいいね数の降順でブログ一覧を表示し、番号ビューを更新する。
func (r *REPL) renderList() {
	r.view = r.collection.SortedView()

	if len(r.view) == 0 {
		fmt.Fprintln(r.out, "No blogs yet. Type new to add one.")
		return
	}

	fmt.Fprintln(r.out, "blogs:")
	for i, b := range r.view {
		fmt.Fprintf(r.out, "%3d. %s %s (%d likes)\n", i+1, b.Title, b.Author, b.Likes)
	}
}

// flushNotification は現在の通知があれば表示する。
func (r *REPL) flushNotification() {
	n := r.notifier.Current()
	if n == nil {
		return
	}
	fmt.Fprintf(r.out, "[%s] %s\n", n.Kind, n.Message)
}

// prompt はプロンプトを表示して1行読み取る。EOFでfalseを返す。
func (r *REPL) prompt(label string) (string, bool) {
	fmt.Fprint(r.out, label)
	if !r.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

// printHelp は利用可能なコマンドの一覧を表示する。
func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, `commands:
  list          refresh and show all blogs (most liked first)
  view <n>      show details of blog n
  like <n>      like blog n
  remove <n>    remove blog n (creator only, asks for confirmation)
  new           add a new blog
  peek <n>      fetch a page preview of blog n
  logout        log out
  quit          exit`)
}
