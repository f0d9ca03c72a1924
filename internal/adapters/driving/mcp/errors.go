// Package mcp provides an MCP (Model Context Protocol) server adapter for Recall.
// It lets AI assistants search the article archive and ask questions about it.
package mcp

import "errors"

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("mcp: index service is required")
