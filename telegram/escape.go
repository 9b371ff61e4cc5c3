package telegram

import (
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// markdownV2Reserved is the punctuation MarkdownV2 treats as markup.
// Every one of these must be backslash-escaped when it appears inside
// an interpolated free-text or URL field.
const markdownV2Reserved = "_*[]()~`>#+-=|{}.!"

// EscapeMarkdownV2 backslash-escapes MarkdownV2 reserved punctuation.
func EscapeMarkdownV2(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownV2Reserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeHTML entity-escapes the characters HTML parse mode reserves.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// Escape applies the dialect-specific escaping for the given parse
// mode to one free-text or URL field.
func Escape(parseMode, s string) string {
	switch parseMode {
	case tgbotapi.ModeHTML:
		return EscapeHTML(s)
	default:
		return EscapeMarkdownV2(s)
	}
}

// ResolveParseMode maps a configured dialect name onto the bot API
// constant, defaulting to MarkdownV2.
func ResolveParseMode(name string) string {
	if strings.EqualFold(name, "HTML") {
		return tgbotapi.ModeHTML
	}
	return tgbotapi.ModeMarkdownV2
}
