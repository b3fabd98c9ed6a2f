// Package cdevents emits CDEvents-shaped notifications over HTTP,
// fire-and-forget, whenever nopea's configuration names an endpoint.
// Emission never blocks or fails the deploy it describes.
package cdevents
