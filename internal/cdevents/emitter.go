package cdevents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/false-systems/nopea/internal/nlog"
)

const subsystem = "cdevents"

// specVersion is the CDEvents spec version nopea's wire events declare.
const specVersion = "1.0"

// Event types nopea emits across a deploy's lifecycle (spec §6).
const (
	TypeDeploymentStarted    = "dev.cdevents.deployment.started.0.1.0"
	TypeDeploymentCompleted  = "dev.cdevents.deployment.completed.0.1.0"
	TypeDeploymentFailed     = "dev.cdevents.deployment.failed.0.1.0"
	TypeDeploymentRolledback = "dev.cdevents.deployment.rolledback.0.1.0"
	TypeServiceDeployed      = "dev.cdevents.service.deployed.0.3.0"
	TypeServiceUpgraded      = "dev.cdevents.service.upgraded.0.3.0"
)

type event struct {
	SpecVersion string                 `json:"specversion"`
	Type        string                 `json:"type"`
	Source      string                 `json:"source"`
	ID          string                 `json:"id"`
	Time        string                 `json:"time"`
	Subject     subject                `json:"subject"`
	Custom      map[string]interface{} `json:"customData,omitempty"`
}

type subject struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Emitter posts CDEvents notifications to a single configured
// endpoint. Callers use Emit; it never blocks and never surfaces an
// error to the deploy path, it only logs failures.
type Emitter struct {
	endpoint string
	client   *http.Client
	sem      chan struct{}
}

// maxConcurrentEmits bounds the goroutine pool Emit spawns into, so a
// stalled CDEvents sink cannot leak unbounded goroutines.
const maxConcurrentEmits = 16

// New returns an Emitter posting to endpoint. If endpoint is empty,
// Emit is a no-op — CDEvents emission is disabled by configuration.
func New(endpoint string) *Emitter {
	return &Emitter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		sem:      make(chan struct{}, maxConcurrentEmits),
	}
}

// Emit fires eventType for service, fire-and-forget. id is the deploy
// identifier and becomes the CDEvents event id.
func (e *Emitter) Emit(eventType, id, service string, custom map[string]interface{}) {
	if e == nil || e.endpoint == "" {
		return
	}

	evt := event{
		SpecVersion: specVersion,
		Type:        eventType,
		Source:      "nopea",
		ID:          id,
		Time:        time.Now().UTC().Format(time.RFC3339),
		Subject:     subject{ID: service, Type: "service"},
		Custom:      custom,
	}

	select {
	case e.sem <- struct{}{}:
		go e.send(evt)
	default:
		nlog.Warn(subsystem, "emitter pool saturated, dropping event type=%s service=%s", eventType, service)
	}
}

func (e *Emitter) send(evt event) {
	defer func() { <-e.sem }()

	body, err := json.Marshal(evt)
	if err != nil {
		nlog.Warn(subsystem, "marshal failed for event type=%s: %s", evt.Type, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		nlog.Warn(subsystem, "request build failed for event type=%s: %s", evt.Type, err)
		return
	}
	req.Header.Set("Content-Type", "application/cdevents+json")

	resp, err := e.client.Do(req)
	if err != nil {
		nlog.Warn(subsystem, "emit failed for event type=%s: %s", evt.Type, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		nlog.Warn(subsystem, "emit for event type=%s got status %s", evt.Type, fmt.Sprintf("%d", resp.StatusCode))
	}
}
