// Package server implements the MCP (Model Context Protocol) server for plate
// recognition.
//
// The server speaks JSON-RPC 2.0 over stdio:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - plate_recognize: Detect and read every plate in an image file
//   - plate_correct: Apply positional OCR corrections to plate text
//   - plate_parse: Split plate text into region, office, series and serial
//   - plate_select: Pick, correct and parse the best of several OCR candidates
//   - plate_region_codes: List known region codes
//
// The recognizer behind plate_recognize is built on the first call, so the
// text tools work even when the cascade file or OCR engine is missing.
// Decoded images are cached by path for the lifetime of the server.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000 and the Go error string as data. Malformed tools/call params
// yield -32602 and unknown methods -32601.
package server
