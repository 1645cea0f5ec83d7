package format

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

// The hyphen stays last so it is literal inside the character class.
const mdV2Specials = "_*[]()~`>#+=|{}.!\\-"

var (
	mdV1Re = regexp.MustCompile("[_*`\\[]")
	mdV2Re = regexp.MustCompile("[" + regexp.QuoteMeta(mdV2Specials) + "]")
)

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$0`), nil
	case MarkdownV2:
		return mdV2Re.ReplaceAllString(text, `\$0`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// MD escapes text for legacy Markdown, the mode used by SendMD.
func MD(text string) string {
	s, _ := EscapeMarkdown(text, MarkdownV1)
	return s
}

// Money renders an amount with two decimals and a dollar sign.
func Money(v decimal.Decimal) string {
	s := v.StringFixed(2)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}
