// Package deploy defines the wire-level data model shared by every
// nopea subsystem: the Spec a caller submits, the Result an
// orchestrator run produces, and the small enums (Strategy, Status)
// both carry.
package deploy
