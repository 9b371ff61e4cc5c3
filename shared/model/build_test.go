package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBuildType_CaseInsensitive(t *testing.T) {
	for _, input := range []string{"ipa", "Ipa", "IPA", "aPk", "aab"} {
		got, err := ParseBuildType(input)
		require.NoError(t, err, "input %q", input)
		assert.Contains(t, []BuildType{BuildTypeAPK, BuildTypeAAB, BuildTypeIPA}, got)
	}
}

func TestParseBuildType_RejectsUnknown(t *testing.T) {
	for _, input := range []string{"", "exe", "ipa2", "apk "} {
		_, err := ParseBuildType(input)
		assert.ErrorIs(t, err, ErrInvalidBuildType, "input %q", input)
	}
}

func TestParseBuildVariant_CaseInsensitive(t *testing.T) {
	got, err := ParseBuildVariant("RELEASE")
	require.NoError(t, err)
	assert.Equal(t, BuildVariantRelease, got)

	got, err = ParseBuildVariant("Debug")
	require.NoError(t, err)
	assert.Equal(t, BuildVariantDebug, got)
}

func TestParseBuildVariant_RejectsUnknown(t *testing.T) {
	_, err := ParseBuildVariant("staging")
	assert.ErrorIs(t, err, ErrInvalidBuildVariant)
}

func TestParseBuildStatus(t *testing.T) {
	got, err := ParseBuildStatus("success")
	require.NoError(t, err)
	assert.Equal(t, BuildStatusSuccess, got)

	_, err = ParseBuildStatus("done")
	assert.ErrorIs(t, err, ErrInvalidBuildStatus)
}
