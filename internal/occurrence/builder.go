package occurrence

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/memory"
)

var summaryTemplate = template.Must(
	template.New("summary").Funcs(sprig.TxtFuncMap()).Parse(
		`{{ .Tag | replace "_" " " | title }} while deploying {{ .Service }}`,
	),
)

func severityFor(status deploy.Status) string {
	switch status {
	case deploy.StatusFailed:
		return "error"
	case deploy.StatusRolledback:
		return "warning"
	default:
		return "info"
	}
}

// Build assembles the post-deploy occurrence artifact for result. ctx
// is the memory context fetched before strategy selection; it may be
// the zero value if Memory is absent.
func Build(result *deploy.Result, ctx memory.Context) *Artifact {
	outcome := string(result.Status)

	artifact := &Artifact{
		Version:   "1.0",
		ID:        result.DeployID,
		Timestamp: result.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Source:    "nopea",
		Type:      fmt.Sprintf("deploy.run.%s", outcome),
		Severity:  severityFor(result.Status),
		Outcome:   outcome,
		History:   buildHistory(result),
		DeployData: DeployData{
			Service:          result.Service,
			Namespace:        result.Namespace,
			Strategy:         string(result.Strategy),
			ManifestsApplied: len(result.AppliedResources),
			Verified:         result.Verified,
			DeployID:         result.DeployID,
		},
	}

	if result.Status != deploy.StatusCompleted {
		artifact.Error = buildError(result)
		artifact.Reasoning = buildReasoning(result, ctx)
	}

	return artifact
}

func buildError(result *deploy.Result) *Error {
	tag, message := "unknown", ""
	if result.Error != nil {
		tag, message = result.Error.Tag, result.Error.Message
	}
	return &Error{
		Code:         tag,
		WhatFailed:   fmt.Sprintf("deploy of %s (%s)", result.Service, result.Strategy),
		WhyItMatters: fmt.Sprintf("%s in %s is not updated — %s", result.Service, result.Namespace, impactFor(result.Status)),
		Message:      message,
	}
}

func impactFor(status deploy.Status) string {
	if status == deploy.StatusRolledback {
		return "the previous deploy remains live, manual follow-up may be needed"
	}
	return "traffic continues to be served by the previous revision"
}

func buildReasoning(result *deploy.Result, ctx memory.Context) *Reasoning {
	tag := "unknown error"
	if result.Error != nil {
		tag = result.Error.Tag
	}

	var buf bytes.Buffer
	if err := summaryTemplate.Execute(&buf, struct {
		Tag     string
		Service string
	}{Tag: tag, Service: result.Service}); err != nil {
		buf.Reset()
		buf.WriteString(fmt.Sprintf("%s while deploying %s", tag, result.Service))
	}

	confidence := 0.3
	var memoryContext string
	if ctx.Known {
		confidence = 0.8
		if len(ctx.FailurePatterns) > 0 {
			memoryContext = fmt.Sprintf("%d known failure pattern(s) on record", len(ctx.FailurePatterns))
		}
	}

	return &Reasoning{
		Summary:         strings.TrimSpace(buf.String()),
		Confidence:      confidence,
		MemoryContext:   memoryContext,
		Recommendations: ctx.Recommendations,
	}
}

func buildHistory(result *deploy.Result) History {
	switch result.Status {
	case deploy.StatusCompleted:
		steps := []Step{{Name: "apply manifests", Status: "completed", DurationMs: result.DurationMs}}
		verifyStatus := "passed"
		if !result.Verified {
			verifyStatus = "not_verified"
		}
		steps = append(steps, Step{Name: "post-deploy verification", Status: verifyStatus})
		return History{Steps: steps, DurationMs: result.DurationMs}
	case deploy.StatusRolledback:
		errMsg := ""
		if result.Error != nil {
			errMsg = result.Error.Message
		}
		steps := []Step{
			{Name: "apply manifests", Status: "failed", DurationMs: result.DurationMs, Error: errMsg},
			{Name: "rollback", Status: "completed"},
		}
		return History{Steps: steps, DurationMs: result.DurationMs}
	default: // failed
		errMsg := ""
		if result.Error != nil {
			errMsg = result.Error.Message
		}
		steps := []Step{{Name: "apply manifests", Status: "failed", DurationMs: result.DurationMs, Error: errMsg}}
		return History{Steps: steps, DurationMs: result.DurationMs}
	}
}
