package telegram

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `https://ci\.example\.com/job/42`, EscapeMarkdownV2("https://ci.example.com/job/42"))
	assert.Equal(t, `\*bold\* \_and\_ \[link\]\(x\)`, EscapeMarkdownV2("*bold* _and_ [link](x)"))
	assert.Equal(t, `\#1 \- done\!`, EscapeMarkdownV2("#1 - done!"))
	assert.Equal(t, "plain text", EscapeMarkdownV2("plain text"))
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;bold&lt;/b&gt; &amp; more", EscapeHTML("<b>bold</b> & more"))
}

func TestResolveParseMode(t *testing.T) {
	assert.Equal(t, tgbotapi.ModeHTML, ResolveParseMode("html"))
	assert.Equal(t, tgbotapi.ModeHTML, ResolveParseMode("HTML"))
	assert.Equal(t, tgbotapi.ModeMarkdownV2, ResolveParseMode("MarkdownV2"))
	assert.Equal(t, tgbotapi.ModeMarkdownV2, ResolveParseMode(""))
}

func TestBuildUploaded_MarkdownV2EscapesFields(t *testing.T) {
	f := NewFormatter(tgbotapi.ModeMarkdownV2)

	text := f.BuildUploaded("APK", "Flutter-pipeline", "42",
		"https://cdn.example.com/builds/app.apk", "fixes #12!", "staging")

	assert.Contains(t, text, `*Flutter\-pipeline*`)
	assert.Contains(t, text, `Build \#42`)
	assert.Contains(t, text, `https://cdn\.example\.com/builds/app\.apk`)
	assert.Contains(t, text, `fixes \#12\!`)
	// No unescaped reserved char leaks out of the free-text fields.
	assert.NotContains(t, text, "#12!")
}

func TestBuildUploaded_Defaults(t *testing.T) {
	f := NewFormatter(tgbotapi.ModeHTML)

	text := f.BuildUploaded("AAB", "Flutter-pipeline", "7", "https://cdn.example.com/app.aab", "", "")

	assert.Contains(t, text, "No additional message provided.")
	assert.Contains(t, text, "Not specified.")
}

func TestIPAUploaded_CarriesBothURLs(t *testing.T) {
	f := NewFormatter(tgbotapi.ModeMarkdownV2)

	caption := f.IPAUploaded("Flutter-pipeline", "42",
		"https://cdn.example.com/build-42/app.ipa",
		"https://cdn.example.com/build-42/manifest.plist",
		"", "production")

	assert.Contains(t, caption, `Build \#42`)
	assert.Contains(t, caption, `https://cdn\.example\.com/build\-42/app\.ipa`)
	assert.Contains(t, caption, `https://cdn\.example\.com/build\-42/manifest\.plist`)
	assert.Contains(t, caption, "production")
}

func TestIPAUploaded_HTMLEscapesFields(t *testing.T) {
	f := NewFormatter(tgbotapi.ModeHTML)

	caption := f.IPAUploaded("Flutter-pipeline", "42",
		"https://cdn.example.com/app.ipa?a=1&b=2",
		"https://cdn.example.com/manifest.plist",
		"<script>alert(1)</script>", "")

	assert.Contains(t, caption, "<b>Flutter-pipeline</b>")
	assert.Contains(t, caption, "a=1&amp;b=2")
	assert.Contains(t, caption, "&lt;script&gt;")
	assert.NotContains(t, caption, "<script>")
}

func TestBuildStatusNotification(t *testing.T) {
	f := NewFormatter(tgbotapi.ModeMarkdownV2)

	text := f.BuildStatusNotification("Flutter-iOS-Build", "https://ci.example.com", "SUCCESS", "42", "")

	assert.Contains(t, text, "*Jenkins Build Notification*")
	assert.Contains(t, text, `Flutter\-iOS\-Build`)
	assert.Contains(t, text, "SUCCESS")
	// Console deep link lands in a link target, not escaped text.
	assert.Contains(t, text, "(https://ci.example.com/job/Flutter-iOS-Build/42/console)")
	assert.True(t, strings.Contains(text, "[View Build Details]"))
}

func TestUploadSkipped(t *testing.T) {
	f := NewFormatter(tgbotapi.ModeMarkdownV2)

	text := f.UploadSkipped("Flutter-pipeline", "42", "FAILURE")

	assert.Contains(t, text, `*Flutter\-pipeline*`)
	assert.Contains(t, text, "FAILURE")
	assert.Contains(t, text, `Build \#42`)
}
