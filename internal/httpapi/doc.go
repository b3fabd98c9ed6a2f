// Package httpapi serves nopea's five-route HTTP admin surface on a
// plain net/http.ServeMux: health/readiness probes, deploy submission,
// memory context lookup, and deploy history. It deliberately stays off
// any router framework — see DESIGN.md for why.
package httpapi
