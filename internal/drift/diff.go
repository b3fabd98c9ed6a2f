package drift

import (
	"context"

	"github.com/false-systems/nopea/internal/cache"
	"github.com/false-systems/nopea/internal/deploy"
	"github.com/false-systems/nopea/internal/k8s"
	"github.com/false-systems/nopea/internal/nerrors"
)

// Outcome tags classify the result of a three-way diff or a full
// verify_manifest run.
type Outcome string

const (
	OutcomeNoDrift      Outcome = "no_drift"
	OutcomeGitChange    Outcome = "git_change"
	OutcomeManualDrift  Outcome = "manual_drift"
	OutcomeConflict     Outcome = "conflict"
	OutcomeNewResource  Outcome = "new_resource"
	OutcomeNeedsApply   Outcome = "needs_apply"
)

// Result is the full classification of one verify_manifest or
// ThreeWayDiff call, carrying whichever manifests are relevant to the
// outcome (From/To for git_change, Expected/Actual for manual_drift,
// Last/Desired/Live for conflict).
type Result struct {
	Outcome  Outcome
	From     deploy.Manifest
	To       deploy.Manifest
	Expected deploy.Manifest
	Actual   deploy.Manifest
	Last     deploy.Manifest
	Desired  deploy.Manifest
	Live     deploy.Manifest
}

// Verified reports whether this outcome counts as a clean post-deploy
// verification (spec §4.6 step 6: verified iff every check is
// no_drift or new_resource).
func (r Result) Verified() bool {
	return r.Outcome == OutcomeNoDrift || r.Outcome == OutcomeNewResource
}

// ThreeWayDiff classifies drift among the last-applied, desired, and
// live states of one resource.
func ThreeWayDiff(lastApplied, desired, live deploy.Manifest) (Result, error) {
	lastHash, err := Hash(lastApplied)
	if err != nil {
		return Result{}, err
	}
	desiredHash, err := Hash(desired)
	if err != nil {
		return Result{}, err
	}
	liveHash, err := Hash(live)
	if err != nil {
		return Result{}, err
	}

	gitChanged := desiredHash != lastHash
	manualDrift := liveHash != lastHash

	switch {
	case !gitChanged && !manualDrift:
		return Result{Outcome: OutcomeNoDrift}, nil
	case gitChanged && !manualDrift:
		return Result{Outcome: OutcomeGitChange, From: lastApplied, To: desired}, nil
	case !gitChanged && manualDrift:
		return Result{Outcome: OutcomeManualDrift, Expected: desired, Actual: live}, nil
	default:
		return Result{Outcome: OutcomeConflict, Last: lastApplied, Desired: desired, Live: live}, nil
	}
}

// VerifyManifest looks up the last-applied state for (service, desired)
// in c and the live resource via client, then classifies drift.
func VerifyManifest(ctx context.Context, client k8s.Client, c *cache.Cache, service, namespace string, desired deploy.Manifest) (Result, error) {
	apiVersion, _ := desired["apiVersion"].(string)
	kind, _ := desired["kind"].(string)
	name := resourceName(desired)

	lastApplied, hasLast := c.LastApplied.Get(cache.ResourceKey(service, kind, namespace, name))

	live, err := client.GetResource(ctx, apiVersion, kind, name, namespace)
	hasLive := true
	if err != nil {
		if nerrors.IsNotFound(err) {
			hasLive = false
		} else {
			return Result{}, err
		}
	}

	switch {
	case !hasLast && !hasLive:
		return Result{Outcome: OutcomeNewResource}, nil
	case !hasLast && hasLive:
		return Result{Outcome: OutcomeNeedsApply}, nil
	case hasLast && !hasLive:
		return Result{Outcome: OutcomeNewResource}, nil
	default:
		return ThreeWayDiff(lastApplied, desired, live)
	}
}

func resourceName(m deploy.Manifest) string {
	metadata, ok := m["metadata"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := metadata["name"].(string)
	return name
}
