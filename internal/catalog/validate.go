package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var codeRe = regexp.MustCompile(`^[A-Z0-9_-]{2,32}$`)

// NormalizeCode trims and uppercases a raw code and checks it against the
// allowed shape: 2 to 32 characters of A-Z, 0-9, '-' or '_'.
func NormalizeCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !codeRe.MatchString(code) {
		return "", fmt.Errorf("a code is 2-32 characters: letters, digits, '-' or '_'")
	}
	return code, nil
}

// ValidateURL accepts absolute http or https links and returns the trimmed value.
func ValidateURL(raw string) (string, error) {
	link := strings.TrimSpace(raw)
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("that does not look like a link")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("the link must start with http:// or https://")
	}
	if u.Host == "" {
		return "", fmt.Errorf("the link is missing a host")
	}
	return link, nil
}
