package deploy

import (
	"time"

	"github.com/false-systems/nopea/internal/nerrors"
)

// Manifest is an unparsed Kubernetes resource. Manifest YAML→JSON
// parsing happens at the edge (the CLI or an API caller); by the time
// a Manifest reaches nopea it is already a structured dictionary.
type Manifest map[string]interface{}

// Strategy names a deploy rollout strategy.
type Strategy string

const (
	// StrategyUnset means "let the orchestrator auto-select."
	StrategyUnset    Strategy = ""
	StrategyDirect   Strategy = "direct"
	StrategyCanary   Strategy = "canary"
	StrategyBlueGreen Strategy = "blue_green"
)

// Coerce normalizes an arbitrary string into a known Strategy, falling
// back to StrategyDirect for anything unrecognized rather than
// rejecting the deploy outright.
func Coerce(s string) Strategy {
	switch Strategy(s) {
	case StrategyDirect, StrategyCanary, StrategyBlueGreen:
		return Strategy(s)
	default:
		return StrategyDirect
	}
}

// ActiveSlot names the currently-active slot in a blue/green rollout.
type ActiveSlot string

const (
	SlotBlue  ActiveSlot = "blue"
	SlotGreen ActiveSlot = "green"
)

// Options carries strategy-specific knobs.
type Options struct {
	// CanarySteps are weight percentages in (0, 100], strictly
	// monotone, ending at 100. Defaults to [10, 25, 50, 75, 100].
	CanarySteps []int
	// ActiveSlot is the blue/green slot currently live. Defaults to blue.
	ActiveSlot ActiveSlot
}

// DefaultCanarySteps is used whenever Options.CanarySteps is empty.
func DefaultCanarySteps() []int { return []int{10, 25, 50, 75, 100} }

// Spec is a request to deploy a service.
type Spec struct {
	Service     string
	Namespace   string // defaults to "default"
	Manifests   []Manifest
	Strategy    Strategy // empty => auto-select
	Options     Options
	TimeoutMs   int // defaults to 120000
}

// Normalize fills in the spec's defaults in place and returns it for
// chaining.
func (s *Spec) Normalize() *Spec {
	if s.Namespace == "" {
		s.Namespace = "default"
	}
	if s.TimeoutMs == 0 {
		s.TimeoutMs = 120000
	}
	if len(s.Options.CanarySteps) == 0 {
		s.Options.CanarySteps = DefaultCanarySteps()
	}
	if s.Options.ActiveSlot == "" {
		s.Options.ActiveSlot = SlotBlue
	}
	return s
}

// Status is the terminal state of a deploy.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRolledback Status = "rolledback"
)

// Error is the nullable, typed error value carried on a Result. Tag is
// the stable taxonomy string from nerrors.Tag; Message is a
// human-readable detail.
type Error struct {
	Tag     string
	Message string
}

// NewError wraps a Go error into the wire-level Error shape.
func NewError(err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Tag: nerrors.Tag(err), Message: err.Error()}
}

// Result is the outcome of one orchestrator run.
type Result struct {
	DeployID        string
	Service         string
	Namespace       string
	Status          Status
	Strategy        Strategy
	ManifestCount   int
	DurationMs      int64
	Verified        bool
	Error           *Error
	AppliedResources []Manifest
	Timestamp       time.Time
}
