package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	defaultMessage     = "No additional message provided."
	defaultEnvironment = "Not specified."
)

// Formatter renders outbound notification text in the configured
// markup dialect, escaping every interpolated free-text and URL field
// so user-supplied content cannot break the markup.
type Formatter struct {
	parseMode string
}

func NewFormatter(parseMode string) *Formatter {
	return &Formatter{parseMode: parseMode}
}

func (f *Formatter) ParseMode() string {
	return f.parseMode
}

func (f *Formatter) esc(s string) string {
	return Escape(f.parseMode, s)
}

func (f *Formatter) bold(s string) string {
	if f.parseMode == tgbotapi.ModeHTML {
		return "<b>" + EscapeHTML(s) + "</b>"
	}
	return "*" + EscapeMarkdownV2(s) + "*"
}

func (f *Formatter) link(text, url string) string {
	if f.parseMode == tgbotapi.ModeHTML {
		return `<a href="` + EscapeHTML(url) + `">` + EscapeHTML(text) + `</a>`
	}
	// Inside a MarkdownV2 link target only ')' and '\' are special.
	target := strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(url)
	return "[" + EscapeMarkdownV2(text) + "](" + target + ")"
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// BuildUploaded is the plain-package completion message (APK, AAB).
func (f *Formatter) BuildUploaded(buildType, pipelineName, buildNumber, buildURL, message, environment string) string {
	var b strings.Builder
	b.WriteString(f.esc("New " + buildType + " build uploaded for "))
	b.WriteString(f.bold(pipelineName))
	b.WriteString(f.esc(" - Build #" + buildNumber))
	b.WriteString("\n\n")
	b.WriteString(f.esc("Build URL: " + buildURL))
	b.WriteString("\n\n")
	b.WriteString(f.esc("Message: " + orDefault(message, defaultMessage)))
	b.WriteString("\n\n")
	b.WriteString(f.esc("Build Environment: " + orDefault(environment, defaultEnvironment)))
	return b.String()
}

// IPAUploaded is the installer-package photo caption: it carries the
// manifest URL next to the build URL so the QR image and the links
// arrive together.
func (f *Formatter) IPAUploaded(pipelineName, buildNumber, buildURL, manifestURL, message, environment string) string {
	var b strings.Builder
	b.WriteString(f.esc("New IPA build uploaded for "))
	b.WriteString(f.bold(pipelineName))
	b.WriteString(f.esc(" - Build #" + buildNumber))
	b.WriteString("\n\n")
	b.WriteString(f.esc("Build URL: " + buildURL))
	b.WriteString("\n\n")
	b.WriteString(f.esc("Manifest URL: " + manifestURL))
	b.WriteString("\n\n")
	b.WriteString(f.esc("Message: " + orDefault(message, defaultMessage)))
	b.WriteString("\n\n")
	b.WriteString(f.esc("Build Environment: " + orDefault(environment, defaultEnvironment)))
	return b.String()
}

// BuildStatusNotification is the mid-pipeline notify message with a
// console deep link.
func (f *Formatter) BuildStatusNotification(jobName, branchURL, buildStatus, buildNumber, message string) string {
	var b strings.Builder
	b.WriteString(f.bold("Jenkins Build Notification"))
	b.WriteString("\n\n")
	b.WriteString(f.bold("Job Name:"))
	b.WriteString(" " + f.esc(jobName) + "\n")
	b.WriteString(f.bold("Branch URL:"))
	b.WriteString(" " + f.esc(branchURL) + "\n")
	b.WriteString(f.bold("Build Status:"))
	b.WriteString(" " + f.esc(buildStatus) + "\n")
	b.WriteString(f.bold("Build Number:"))
	b.WriteString(" " + f.esc("#"+buildNumber))
	b.WriteString("\n\n")
	b.WriteString(f.link("View Build Details", branchURL+"/job/"+jobName+"/"+buildNumber+"/console"))
	b.WriteString("\n\n")
	b.WriteString(f.esc("Message: " + orDefault(message, defaultMessage)))
	return b.String()
}

// UploadSkipped reports a completion event whose build did not
// succeed; nothing was uploaded for it.
func (f *Formatter) UploadSkipped(pipelineName, buildNumber, buildStatus string) string {
	var b strings.Builder
	b.WriteString(f.esc("Build upload skipped for "))
	b.WriteString(f.bold(pipelineName))
	b.WriteString(f.esc(" - Build #" + buildNumber + " due to build status: " + buildStatus))
	return b.String()
}
