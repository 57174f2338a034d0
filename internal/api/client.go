// Package api はブログサービスAPIのクライアントを提供する。
// 認証、ブログのCRUD、およびテストハーネス用エンドポイントの呼び出しを含む。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/blogman/internal/model"
)

// Client はブログサービスAPIのクライアント。
// ログイン以外の呼び出しにはBearerトークンを付与する。
// リトライは行わず、失敗は1回で呼び出し元に返す。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string // 例: "http://localhost:3003/api"。テスト用に差し替え可能
	token      string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// SetToken は以降のリクエストに付与するBearerトークンを設定する。
// 空文字列を渡すとトークンを解除する。
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login は認証を行い、セッション情報を取得する。
// 認証失敗時はステータス401の*model.RequestErrorを返す。
func (c *Client) Login(ctx context.Context, username, password string) (*model.Session, error) {
	body := map[string]string{
		"username": username,
		"password": password,
	}

	var session model.Session
	if err := c.do(ctx, http.MethodPost, "/login", body, &session, false); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListBlogs はブログ一覧の全件を取得する。
func (c *Client) ListBlogs(ctx context.Context) ([]model.Blog, error) {
	var blogs []model.Blog
	if err := c.do(ctx, http.MethodGet, "/blogs", nil, &blogs, true); err != nil {
		return nil, err
	}
	return blogs, nil
}

// CreateBlog は新規ブログを作成し、サーバーが採番したIDを含むブログを返す。
func (c *Client) CreateBlog(ctx context.Context, draft model.BlogDraft) (*model.Blog, error) {
	var created model.Blog
	if err := c.do(ctx, http.MethodPost, "/blogs", draft, &created, true); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateBlog は指定IDのブログを更新し、更新後のブログを返す。
// レスポンスのownerは完全な要約ではない場合がある（呼び出し元がマージで補完する）。
func (c *Client) UpdateBlog(ctx context.Context, id string, payload model.UpdatePayload) (*model.Blog, error) {
	var updated model.Blog
	if err := c.do(ctx, http.MethodPut, "/blogs/"+id, payload, &updated, true); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteBlog は指定IDのブログを削除する。
func (c *Client) DeleteBlog(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/blogs/"+id, nil, nil, true)
}

// CreateUser はユーザーを作成する。
// テストハーネスおよび開発サーバーの初期データ投入用。
func (c *Client) CreateUser(ctx context.Context, user model.NewUser) error {
	return c.do(ctx, http.MethodPost, "/users", user, nil, false)
}

// Reset は全データをリセットする。テストハーネス専用。
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/testing/reset", nil, nil, false)
}

// errorBody はAPIエラーレスポンスのボディ。
type errorBody struct {
	Error string `json:"error"`
}

// do はHTTPリクエストを実行し、2xxならレスポンスボディをoutにデコードする。
// 非2xxの場合はステータスとサーバーのメッセージを持つ*model.RequestErrorを返す。
func (c *Client) do(ctx context.Context, method, path string, body, out any, withAuth bool) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withAuth && c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// サーバーのエラーメッセージは診断ログ用。ユーザー向け文言は呼び出し元が決める。
		var eb errorBody
		data, readErr := io.ReadAll(resp.Body)
		if readErr == nil {
			_ = json.Unmarshal(data, &eb)
		}
		c.logger.Warn("api returned error status",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("server_message", eb.Error),
		)
		return &model.RequestError{
			StatusCode: resp.StatusCode,
			Message:    eb.Error,
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
