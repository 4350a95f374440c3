package format

import (
	"fmt"
	"regexp"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

const mdV2Specials = "_*[]()~`>#+-=|{}.!"

var (
	mdV1Escape     = regexp.MustCompile(`([_*\\\[` + "`" + `])`)
	mdV2Escape     = regexp.MustCompile("([" + regexp.QuoteMeta(mdV2Specials) + "])")
	mdV2CodeEscape = regexp.MustCompile("([" + regexp.QuoteMeta("\\`") + "])")
	mdV2LinkEscape = regexp.MustCompile("([" + regexp.QuoteMeta("\\)") + "])")
)

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
// For V2 the entityType narrows the escape set: "pre" and "code" spans only
// need backtick and backslash escaped, "text_link" targets only ')' and
// backslash. Any other entityType escapes the full V2 set.
func EscapeMarkdown(text string, version int, entityType string) (string, error) {
	re, err := escapePattern(version, entityType)
	if err != nil {
		return "", err
	}
	return re.ReplaceAllString(text, `\$1`), nil
}

func escapePattern(version int, entityType string) (*regexp.Regexp, error) {
	switch version {
	case MarkdownV1:
		return mdV1Escape, nil
	case MarkdownV2:
		switch entityType {
		case "pre", "code":
			return mdV2CodeEscape, nil
		case "text_link":
			return mdV2LinkEscape, nil
		}
		return mdV2Escape, nil
	}
	return nil, fmt.Errorf("unsupported markdown version: %d", version)
}
