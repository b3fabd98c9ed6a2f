package occurrence

// Error describes what failed, present only on non-completed results.
type Error struct {
	Code          string `json:"code"`
	WhatFailed    string `json:"what_failed"`
	WhyItMatters  string `json:"why_it_matters"`
	Message       string `json:"message,omitempty"`
}

// Reasoning carries the human-readable explanation and any memory
// -derived context, present only on non-completed results.
type Reasoning struct {
	Summary         string   `json:"summary"`
	Confidence      float64  `json:"confidence"`
	MemoryContext   string   `json:"memory_context,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Step is one entry in the occurrence's execution history.
type Step struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// History is the full sequence of steps the deploy went through.
type History struct {
	Steps      []Step `json:"steps"`
	DurationMs int64  `json:"duration_ms"`
}

// DeployData summarizes the deploy the occurrence describes.
type DeployData struct {
	Service          string `json:"service"`
	Namespace        string `json:"namespace"`
	Strategy         string `json:"strategy"`
	ManifestsApplied int    `json:"manifests_applied"`
	Verified         bool   `json:"verified"`
	DeployID         string `json:"deploy_id,omitempty"`
}

// Artifact is nopea's structured post-deploy report (spec §4.9). Keys
// are literal: version, id, timestamp, source, type, severity, outcome.
type Artifact struct {
	Version    string     `json:"version"`
	ID         string     `json:"id"`
	Timestamp  string     `json:"timestamp"`
	Source     string     `json:"source"`
	Type       string     `json:"type"`
	Severity   string     `json:"severity"`
	Outcome    string     `json:"outcome"`
	Error      *Error     `json:"error,omitempty"`
	Reasoning  *Reasoning `json:"reasoning,omitempty"`
	History    History    `json:"history"`
	DeployData DeployData `json:"deploy_data"`
}
