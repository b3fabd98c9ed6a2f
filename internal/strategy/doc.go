// Package strategy translates a deploy spec's chosen strategy into
// concrete Kubernetes API calls: direct applies every manifest
// verbatim; canary and blue_green build a single Rollout envelope for
// an external progressive-delivery collaborator.
package strategy
