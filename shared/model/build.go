// shared/model/build.go
package model

import (
	"errors"
	"strings"
)

var (
	ErrInvalidBuildType    = errors.New("invalid build type")
	ErrInvalidBuildVariant = errors.New("invalid build variant")
	ErrInvalidBuildStatus  = errors.New("invalid build status")
)

// BuildType is the packaging format produced by a pipeline run.
type BuildType string

const (
	BuildTypeAPK BuildType = "APK"
	BuildTypeAAB BuildType = "AAB"
	BuildTypeIPA BuildType = "IPA"
)

// ParseBuildType upper-cases the input and checks it against the
// closed enumeration. Unrecognized values are rejected before any
// network call is made on their behalf.
func ParseBuildType(s string) (BuildType, error) {
	switch t := BuildType(strings.ToUpper(s)); t {
	case BuildTypeAPK, BuildTypeAAB, BuildTypeIPA:
		return t, nil
	default:
		return "", ErrInvalidBuildType
	}
}

// BuildVariant is the compilation mode requested from the pipeline.
type BuildVariant string

const (
	BuildVariantDebug   BuildVariant = "debug"
	BuildVariantProfile BuildVariant = "profile"
	BuildVariantRelease BuildVariant = "release"
)

func ParseBuildVariant(s string) (BuildVariant, error) {
	switch v := BuildVariant(strings.ToLower(s)); v {
	case BuildVariantDebug, BuildVariantProfile, BuildVariantRelease:
		return v, nil
	default:
		return "", ErrInvalidBuildVariant
	}
}

// BuildStatus is the terminal result reported by the CI system.
type BuildStatus string

const (
	BuildStatusSuccess  BuildStatus = "SUCCESS"
	BuildStatusFailure  BuildStatus = "FAILURE"
	BuildStatusUnstable BuildStatus = "UNSTABLE"
	BuildStatusAborted  BuildStatus = "ABORTED"
)

func ParseBuildStatus(s string) (BuildStatus, error) {
	switch st := BuildStatus(strings.ToUpper(s)); st {
	case BuildStatusSuccess, BuildStatusFailure, BuildStatusUnstable, BuildStatusAborted:
		return st, nil
	default:
		return "", ErrInvalidBuildStatus
	}
}
