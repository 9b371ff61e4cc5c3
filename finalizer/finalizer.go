// Package finalizer runs the build-type-conditional post-processing
// pipeline once a build's artifacts have landed in the object store.
package finalizer

import (
	"context"
	"log"
	"net/url"
	"time"

	"telejenkins/manifest"
	"telejenkins/qrcode"
	"telejenkins/shared/message"
	"telejenkins/shared/model"
	"telejenkins/telegram"
)

// Storage is the slice of the object-store manager the finalizer
// needs: deterministic keys and direct writes.
type Storage interface {
	ObjectKey(fileName, buildNumber string) string
	UploadFile(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// Notifier dispatches the outbound notification, one attempt only.
type Notifier interface {
	SendMessage(text string) error
	SendPhoto(photo []byte, caption string) error
}

// Event is the completion metadata that drives branch selection.
type Event struct {
	BuildURL         string
	BuildType        model.BuildType
	ObjectKey        string
	BundleIdentifier string
	BundleVersion    string
	BuildNumber      string
	Title            string
	Message          string
	BuildEnvironment string
}

// Finalizer executes the per-event state machine. Installer packages
// go through manifest generation, manifest upload and QR encoding
// before a photo dispatch; every other build type dispatches text.
// Stages run strictly in order and the first failure is terminal for
// the event.
type Finalizer struct {
	storage      Storage
	notifier     Notifier
	formatter    *telegram.Formatter
	pipelineName string
	onCompleted  func(message.BuildCompletionMessage)
}

func New(storage Storage, notifier Notifier, formatter *telegram.Formatter, pipelineName string) *Finalizer {
	return &Finalizer{
		storage:      storage,
		notifier:     notifier,
		formatter:    formatter,
		pipelineName: pipelineName,
	}
}

// OnCompleted registers a best-effort callback fired after a
// successful dispatch. It never affects the event's outcome.
func (f *Finalizer) OnCompleted(fn func(message.BuildCompletionMessage)) {
	f.onCompleted = fn
}

// Finalize processes one completion event to its terminal state. For
// installer packages it returns the public URL of the stored OTA
// manifest; for every other build type the URL is empty.
func (f *Finalizer) Finalize(ctx context.Context, ev Event) (string, error) {
	manifestURL := ""

	if ev.BuildType == model.BuildTypeIPA {
		manifestData, err := manifest.Generate(ev.BuildURL, ev.BundleIdentifier, ev.BundleVersion, ev.Title)
		if err != nil {
			log.Printf("❌ Manifest generation failed for build %s: %v", ev.BuildNumber, err)
			return "", err
		}

		manifestKey := f.storage.ObjectKey(manifest.FileName, ev.BuildNumber)
		manifestURL, err = f.storage.UploadFile(ctx, manifestKey, manifestData, manifest.ContentType)
		if err != nil {
			log.Printf("❌ Manifest upload failed for build %s: %v", ev.BuildNumber, err)
			return "", err
		}

		installLink := "itms-services://?action=download-manifest&url=" + url.QueryEscape(manifestURL)
		photo, err := qrcode.Generate(installLink)
		if err != nil {
			log.Printf("❌ QR generation failed for build %s: %v", ev.BuildNumber, err)
			return "", err
		}

		caption := f.formatter.IPAUploaded(
			f.pipelineName, ev.BuildNumber, ev.BuildURL, manifestURL, ev.Message, ev.BuildEnvironment)
		if err := f.notifier.SendPhoto(photo, caption); err != nil {
			log.Printf("❌ Photo dispatch failed for build %s: %v", ev.BuildNumber, err)
			return "", err
		}
	} else {
		text := f.formatter.BuildUploaded(
			string(ev.BuildType), f.pipelineName, ev.BuildNumber, ev.BuildURL, ev.Message, ev.BuildEnvironment)
		if err := f.notifier.SendMessage(text); err != nil {
			log.Printf("❌ Text dispatch failed for build %s: %v", ev.BuildNumber, err)
			return "", err
		}
	}

	log.Printf("✅ Finalized %s build %s for %s", ev.BuildType, ev.BuildNumber, f.pipelineName)

	if f.onCompleted != nil {
		f.onCompleted(message.BuildCompletionMessage{
			PipelineName: f.pipelineName,
			BuildNumber:  ev.BuildNumber,
			BuildType:    string(ev.BuildType),
			BuildURL:     ev.BuildURL,
			ManifestURL:  manifestURL,
			CompletedAt:  time.Now(),
		})
	}

	return manifestURL, nil
}
