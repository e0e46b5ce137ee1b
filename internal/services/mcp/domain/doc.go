// Package domain defines the MCP tools that drive character sheets: their
// input and result shapes and the handlers that call the sheet service.
//
// Engine rejections are ordinary results with Accepted set to false so an
// agent can read the code, metadata and advancement reasons. Only failures
// outside the engine (unknown character, malformed id, storage errors) are
// returned as tool errors.
package domain
