package security

import "testing"

// TestNewFieldSanitizer はFieldSanitizerの生成をテストする。
func TestNewFieldSanitizer(t *testing.T) {
	s := NewFieldSanitizer()
	if s == nil {
		t.Fatal("NewFieldSanitizer() returned nil")
	}
}

// TestSanitizeField_PlainText はプレーンテキストがそのまま通過することをテストする。
func TestSanitizeField_PlainText(t *testing.T) {
	s := NewFieldSanitizer()

	inputs := []string{
		"Go Concurrency Patterns",
		"Edsger W. Dijkstra",
		"https://example.com/blog/goto-harmful",
	}

	for _, in := range inputs {
		if got := s.SanitizeField(in); got != in {
			t.Errorf("SanitizeField(%q) = %q, want unchanged", in, got)
		}
	}
}

// TestSanitizeField_StripsTags はHTMLタグがすべて除去されることをテストする。
func TestSanitizeField_StripsTags(t *testing.T) {
	s := NewFieldSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"script tag", `<script>alert("xss")</script>Title`, "Title"},
		{"bold tag", "<b>Title</b>", "Title"},
		{"img onerror", `<img src=x onerror=alert(1)>Author`, "Author"},
		{"nested tags", "<div><p>Text</p></div>", "Text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SanitizeField(tt.input); got != tt.want {
				t.Errorf("SanitizeField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeField_TrimsWhitespace は前後の空白がトリムされることをテストする。
func TestSanitizeField_TrimsWhitespace(t *testing.T) {
	s := NewFieldSanitizer()

	if got := s.SanitizeField("  Title  "); got != "Title" {
		t.Errorf("SanitizeField = %q, want %q", got, "Title")
	}
}

// TestSanitizeField_EmptyString は空文字列の入力に空文字列を返すことをテストする。
func TestSanitizeField_EmptyString(t *testing.T) {
	s := NewFieldSanitizer()

	if got := s.SanitizeField(""); got != "" {
		t.Errorf("SanitizeField(\"\") = %q, want empty", got)
	}
}

// TestSanitizeField_Idempotent は同一入力に対して常に同一出力を返すことをテストする。
func TestSanitizeField_Idempotent(t *testing.T) {
	s := NewFieldSanitizer()

	input := `<b>Go</b> Patterns`
	first := s.SanitizeField(input)
	second := s.SanitizeField(first)
	if first != second {
		t.Errorf("sanitize not idempotent: %q -> %q", first, second)
	}
}

// TestFieldSanitizerInterface はfieldSanitizerがインターフェースを正しく実装していることをテストする。
func TestFieldSanitizerInterface(t *testing.T) {
	var _ FieldSanitizerService = NewFieldSanitizer()
}
