package security

import (
	"strings"
	"testing"
)

// TestSanitize_AllowedTags は許可タグが正しく通過することを検証する。
func TestSanitize_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		// want に含まれるべき部分文字列
		wantContains []string
	}{
		{
			name:         "pタグが許可される",
			input:        "<p>テスト段落</p>",
			wantContains: []string{"<p>テスト段落</p>"},
		},
		{
			name:         "brタグが許可される",
			input:        "行1<br>行2",
			wantContains: []string{"<br>", "行1", "行2"},
		},
		{
			name:         "aタグが許可される",
			input:        `<a href="https://example.com">リンク</a>`,
			wantContains: []string{"<a", "href", "https://example.com", "リンク", "</a>"},
		},
		{
			name:         "ulタグとliタグが許可される",
			input:        "<ul><li>項目1</li><li>項目2</li></ul>",
			wantContains: []string{"<ul>", "<li>項目1</li>", "<li>項目2</li>", "</ul>"},
		},
		{
			name:         "codeタグとpreタグが許可される",
			input:        "<pre><code>fmt.Println()</code></pre>",
			wantContains: []string{"<pre>", "<code>", "fmt.Println()", "</code>", "</pre>"},
		},
		{
			name:         "imgタグのhttps srcが許可される",
			input:        `<img src="https://example.com/a.png" alt="図">`,
			wantContains: []string{"<img", "https://example.com/a.png", "alt"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, want contains %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_RemovedTags は危険なタグ・属性が除去されることを検証する。
func TestSanitize_RemovedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		// want に含まれてはいけない部分文字列
		wantMissing []string
	}{
		{
			name:        "scriptタグが除去される",
			input:       `<p>本文</p><script>alert("xss")</script>`,
			wantMissing: []string{"<script", "alert"},
		},
		{
			name:        "iframeタグが除去される",
			input:       `<iframe src="https://evil.example.com"></iframe>`,
			wantMissing: []string{"<iframe", "evil.example.com"},
		},
		{
			name:        "onclickイベント属性が除去される",
			input:       `<p onclick="alert(1)">クリック</p>`,
			wantMissing: []string{"onclick", "alert"},
		},
		{
			name:        "javascriptスキームのリンクが除去される",
			input:       `<a href="javascript:alert(1)">リンク</a>`,
			wantMissing: []string{"javascript:"},
		},
		{
			name:        "httpスキームのimg srcが除去される",
			input:       `<img src="http://example.com/a.png">`,
			wantMissing: []string{"http://example.com/a.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, missing := range tt.wantMissing {
				if strings.Contains(got, missing) {
					t.Errorf("Sanitize(%q) = %q, should not contain %q", tt.input, got, missing)
				}
			}
		})
	}
}

// TestSanitize_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()
	input := `<p>本文</p><script>alert(1)</script><a href="https://example.com">リンク</a>`

	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)
	if first != second {
		t.Errorf("サニタイズが冪等でない: %q != %q", first, second)
	}
}

// TestStripLength はタグ除去後の文字数が正しく数えられることを検証する。
func TestStripLength(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"プレーンテキスト", "hello", 5},
		{"タグはカウントされない", "<p>hello</p>", 5},
		{"マルチバイト文字はrune数で数える", "<p>こんにちは</p>", 5},
		{"タグのみは0", "<p></p><br>", 0},
		{"空文字列は0", "", 0},
		{"前後の空白は無視する", "  <p> hello </p>  ", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.StripLength(tt.input); got != tt.want {
				t.Errorf("StripLength(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
