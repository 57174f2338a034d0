// Package preview は登録されたブログURLのページ情報の取得を提供する。
// URLは任意のユーザー入力であるため、取得にはSSRF防止付きクライアントを使用する。
package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// PagePreview は取得したページの要約情報を表す。
type PagePreview struct {
	URL         string
	Title       string
	Description string
	StatusCode  int
}

// URLValidator はSSRF検証のインターフェース。
// security.URLGuardServiceを抽象化してテスタビリティを向上させる。
type URLValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// Fetcher はブログURLのページタイトルと概要の取得機能を提供する。
type Fetcher struct {
	guard    URLValidator
	timeout  time.Duration
	maxSize  int64
	client   *http.Client // テスト用の差し替え口。通常はnilでguardから生成する
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(guard URLValidator, timeout time.Duration, maxSize int64) *Fetcher {
	return &Fetcher{
		guard:   guard,
		timeout: timeout,
		maxSize: maxSize,
	}
}

// Fetch は指定URLのページを取得し、タイトルと概要を抽出して返す。
// 1. SSRF検証を実行
// 2. SSRF防止付きクライアントでHTTPリクエストを送信
// 3. HTMLのheadタグからtitleとmeta descriptionを抽出
// HTML以外のコンテンツの場合、タイトルは空のままプレビューを返す。
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*PagePreview, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("empty URL")
	}

	if f.guard != nil {
		if err := f.guard.ValidateURL(rawURL); err != nil {
			return nil, fmt.Errorf("URL rejected: %w", err)
		}
	}

	client := f.httpClient()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("User-Agent", "Blogman/1.0")
	req.Header.Set("Accept", "text/html, */*")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	preview := &PagePreview{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if !strings.Contains(strings.ToLower(mediaType), "html") {
		return preview, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read page body: %w", err)
	}

	preview.Title, preview.Description = parseHead(body)
	return preview, nil
}

// parseHead はHTMLのheadタグからtitleとmeta descriptionを抽出する。
// bodyタグに入った時点で解析を打ち切る。
func parseHead(htmlBody []byte) (title, description string) {
	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inTitle := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return title, description

		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			tagName := string(tn)

			if tagName == "body" {
				return title, description
			}

			if tagName == "title" {
				inTitle = true
				continue
			}

			if tagName != "meta" || !hasAttr {
				continue
			}

			// meta要素の属性を解析
			var name, content string
			for {
				key, val, more := tokenizer.TagAttr()
				switch strings.ToLower(string(key)) {
				case "name":
					name = strings.ToLower(string(val))
				case "content":
					content = string(val)
				}
				if !more {
					break
				}
			}
			if name == "description" && description == "" {
				description = strings.TrimSpace(content)
			}

		case html.TextToken:
			if inTitle && title == "" {
				title = strings.TrimSpace(string(tokenizer.Text()))
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "title":
				inTitle = false
			case "head":
				return title, description
			}
		}
	}
}

// httpClient はHTTPクライアントを取得する。
// URLGuardが設定されている場合はSSRF防止付きクライアントを返す。
func (f *Fetcher) httpClient() *http.Client {
	if f.client != nil {
		return f.client
	}
	if f.guard != nil {
		return f.guard.NewSafeClient(f.timeout, f.maxSize)
	}
	return &http.Client{Timeout: f.timeout}
}
