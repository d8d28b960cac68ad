// Package content は教材・授業回の登録とリンク検査のドメインロジックを提供する。
package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// URLValidator はURL検証のインターフェース。
// security.URLGuardServiceを抽象化してテスタビリティを向上させる。
type URLValidator interface {
	ValidateURL(rawURL string) error
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client
}

// LinkInspector は講師・管理者が登録する外部リンクの検査機能を提供する。
// 登録前のURL検証と、リンク教材のページタイトル自動取得を行う。
type LinkInspector struct {
	guard       URLValidator
	timeout     time.Duration
	maxBodySize int64
}

// NewLinkInspector はLinkInspectorの新しいインスタンスを生成する。
func NewLinkInspector(guard URLValidator, timeout time.Duration, maxBodySize int64) *LinkInspector {
	return &LinkInspector{
		guard:       guard,
		timeout:     timeout,
		maxBodySize: maxBodySize,
	}
}

// Validate はURLの静的検証を行う。HTTPリクエストは送信しない。
func (l *LinkInspector) Validate(rawURL string) error {
	return l.guard.ValidateURL(rawURL)
}

// FetchTitle はURLのページを取得し、HTMLの<title>要素の内容を返す。
// タイトルが見つからない場合は空文字列を返す（エラーにはしない）。
// レスポンスボディはmaxBodySizeまでしか読まない。
func (l *LinkInspector) FetchTitle(ctx context.Context, rawURL string) (string, error) {
	if err := l.guard.ValidateURL(rawURL); err != nil {
		return "", fmt.Errorf("invalid link URL: %w", err)
	}

	client := l.guard.NewSafeClient(l.timeout, l.maxBodySize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status fetching link: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read link body: %w", err)
	}

	return extractTitle(body), nil
}

// extractTitle はHTMLのheadタグから<title>要素の内容を取り出す。
// bodyタグに入った時点で解析を打ち切る。
func extractTitle(htmlBody []byte) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))
	inTitle := false

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return ""

		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tagName := string(tn)
			if tagName == "title" {
				inTitle = true
				continue
			}
			if tagName == "body" {
				// bodyに入ったらheadの解析を終了
				return ""
			}

		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}

		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "title":
				// テキストの無い空のtitle要素
				inTitle = false
			case "head":
				return ""
			}
		}
	}
}
