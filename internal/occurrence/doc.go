// Package occurrence builds and persists nopea's structured post
// -deploy report: a cold JSON artifact for the most recent deploy, and
// a warm per-deploy binary artifact keyed by deploy id.
package occurrence
