package format

import "testing"

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("a_b*c[d`e", MarkdownV1, "")
	if err != nil {
		t.Fatalf("EscapeMarkdown: %v", err)
	}
	want := `a\_b\*c\[d` + "\\`e"
	if got != want {
		t.Fatalf("v1 escape = %q, want %q", got, want)
	}
}

func TestEscapeMarkdownV2FullSet(t *testing.T) {
	got, err := EscapeMarkdown("price: 1+1=2 (really!)", MarkdownV2, "")
	if err != nil {
		t.Fatalf("EscapeMarkdown: %v", err)
	}
	want := `price: 1\+1\=2 \(really\!\)`
	if got != want {
		t.Fatalf("v2 escape = %q, want %q", got, want)
	}
}

func TestEscapeMarkdownV2KeepsPlainText(t *testing.T) {
	got, err := EscapeMarkdown("SUMMER25", MarkdownV2, "")
	if err != nil {
		t.Fatalf("EscapeMarkdown: %v", err)
	}
	if got != "SUMMER25" {
		t.Fatalf("v2 escape changed plain text: %q", got)
	}
}

func TestEscapeMarkdownV2LinkTarget(t *testing.T) {
	// Inside (...) of an inline link only ')' and '\' need escaping; the
	// URL must otherwise stay byte-identical.
	got, err := EscapeMarkdown("https://ex.com/a_b-c(1).pdf", MarkdownV2, "text_link")
	if err != nil {
		t.Fatalf("EscapeMarkdown: %v", err)
	}
	want := `https://ex.com/a_b-c(1\).pdf`
	if got != want {
		t.Fatalf("text_link escape = %q, want %q", got, want)
	}
}

func TestEscapeMarkdownV2CodeSpan(t *testing.T) {
	got, err := EscapeMarkdown("a`b\\c_d", MarkdownV2, "code")
	if err != nil {
		t.Fatalf("EscapeMarkdown: %v", err)
	}
	want := "a\\`b\\\\c_d"
	if got != want {
		t.Fatalf("code escape = %q, want %q", got, want)
	}
}

func TestEscapeMarkdownUnknownVersion(t *testing.T) {
	if _, err := EscapeMarkdown("x", 3, ""); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}
