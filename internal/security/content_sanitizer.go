// Package security はアプリケーションのセキュリティ機能を提供する。
//
// 収集パイプラインが取り込んだ動画説明文やプロフィール文にはHTMLや
// 制御文字が混入しうるため、APIレスポンスに載せる前にプレーンテキスト化する。
package security

import (
	"html"
	"net/url"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はレスポンスに含める外部由来コンテンツのサニタイズ機能を定義する。
type ContentSanitizerService interface {
	// SanitizeText はHTMLタグと制御文字を除去したプレーンテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
	// SanitizeURL はhttpsの絶対URLのみを返し、それ以外は空文字列を返す。
	SanitizeURL(raw string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフなため、1インスタンスを共有する。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// すべての要素を除去するStrictPolicyを使う。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// maxDecodePasses は多重エスケープされたエンティティを剥がす回数の上限。
const maxDecodePasses = 8

// SanitizeText はHTMLタグと制御文字を除去したプレーンテキストを返す。
// 改行とタブは保持する。
//
// &lt;script&gt; のようにエンティティで書かれたタグは復元した時点で再びタグになるため、
// 出力が変化しなくなるまで除去と復元を繰り返す。上限に達した場合はエスケープしたまま返す。
func (s *contentSanitizer) SanitizeText(raw string) string {
	text := raw
	for i := 0; i < maxDecodePasses; i++ {
		next := s.decodePass(text)
		if next == text {
			return text
		}
		text = next
	}
	return strings.TrimSpace(s.policy.Sanitize(text))
}

// decodePass はタグ除去とエンティティ復元を1段だけ行い、制御文字と前後の空白を落とす。
func (s *contentSanitizer) decodePass(text string) string {
	if text == "" {
		return ""
	}
	// StrictPolicyはテキストをエスケープして返すため、プレーンテキストに戻す
	text = html.UnescapeString(s.policy.Sanitize(text))
	text = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}

// SanitizeURL はhttpsの絶対URLのみを返す。
// javascript:、data:、http:、相対URLは空文字列になる。
func (s *contentSanitizer) SanitizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" || u.Host == "" || u.User != nil {
		return ""
	}
	return u.String()
}
