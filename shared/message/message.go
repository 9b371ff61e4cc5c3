package message

import (
	"time"
)

type TriggerRequestMessage struct {
	JobName      string    `json:"job_name"`
	BranchName   string    `json:"branch_name"`
	BuildType    string    `json:"build_type"`
	BuildVariant string    `json:"build_variant"`
	CreatedAt    time.Time `json:"created_at"`
}

type BuildStatusMessage struct {
	JobName     string    `json:"job_name"`
	BranchURL   string    `json:"branch_url"`
	BuildNumber string    `json:"build_number"`
	Status      string    `json:"status"` // SUCCESS, FAILURE, UNSTABLE, ABORTED
	Message     string    `json:"message,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type BuildCompletionMessage struct {
	PipelineName string    `json:"pipeline_name"`
	BuildNumber  string    `json:"build_number"`
	BuildType    string    `json:"build_type"`
	BuildURL     string    `json:"build_url"`
	ManifestURL  string    `json:"manifest_url,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}
