// Package manifest builds the property-list document a mobile OS
// consumes to perform an over-the-air install from a URL.
package manifest

import (
	"errors"
	"fmt"

	"howett.net/plist"
)

var ErrManifest = errors.New("failed to generate installer manifest")

const FileName = "manifest.plist"

const ContentType = "application/xml"

type Asset struct {
	Kind string `plist:"kind"`
	URL  string `plist:"url"`
}

type Metadata struct {
	BundleIdentifier string `plist:"bundle-identifier"`
	BundleVersion    string `plist:"bundle-version"`
	Kind             string `plist:"kind"`
	Title            string `plist:"title"`
}

type Item struct {
	Assets   []Asset  `plist:"assets"`
	Metadata Metadata `plist:"metadata"`
}

// Document is the root of the OTA installer manifest.
type Document struct {
	Items []Item `plist:"items"`
}

// Generate produces the XML plist embedding the build URL and bundle
// metadata. The document is ephemeral: uploaded once, never re-read.
func Generate(buildURL, bundleIdentifier, bundleVersion, title string) ([]byte, error) {
	doc := Document{
		Items: []Item{
			{
				Assets: []Asset{
					{
						Kind: "software-package",
						URL:  buildURL,
					},
				},
				Metadata: Metadata{
					BundleIdentifier: bundleIdentifier,
					BundleVersion:    bundleVersion,
					Kind:             "software",
					Title:            title,
				},
			},
		},
	}

	data, err := plist.MarshalIndent(doc, plist.XMLFormat, "    ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}

	return data, nil
}

// Parse reads a generated manifest back into its typed form.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if _, err := plist.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifest, err)
	}
	return &doc, nil
}
