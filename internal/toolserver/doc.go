// Package toolserver exposes nopea's deploy orchestrator, memory, and
// cache as a JSON-RPC 2.0 tool-call surface over stdio, reusing
// mark3labs/mcp-go's wire types so any MCP-speaking agent can attach
// to it directly.
// Tools: nopea_deploy, nopea_context, nopea_history, nopea_health,
// nopea_explain.
package toolserver
