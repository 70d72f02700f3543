// Package mcp implements the Model Context Protocol (MCP) server for Dejoiner.
//
// The MCP server exposes four tools to AI assistants:
//   - search_resources: Relevance-ranked search across indexed design resources
//   - save_resource: Index a design link with enrichment and context capture
//   - list_recent: List the most recently edited resources
//   - get_status: Report index statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output. Log
// output goes to stderr so it never corrupts the protocol stream.
//
// # Basic Usage
//
// The MCP server is started via the --mcp flag:
//
//	dejoiner --mcp
//
// It then listens on stdin for MCP protocol messages and writes responses
// to stdout.
//
// # Tool: search_resources
//
//	Request:
//	{
//	  "name": "search_resources",
//	  "arguments": {"query": "checkout", "limit": 6}
//	}
//
//	Response:
//	{
//	  "query": "checkout",
//	  "results": [
//	    {
//	      "id": "3f2a...",
//	      "title": "Checkout Flow",
//	      "type": "figma",
//	      "url": "https://www.figma.com/file/...",
//	      "matched_in": {"field": "contentIndex", "text": "Checkout CTA", "location": "Page 1 > Hero"}
//	    }
//	  ],
//	  "total_matched": 3,
//	  "query_time_ms": 1
//	}
//
// # Tool: save_resource
//
//	Request:
//	{
//	  "name": "save_resource",
//	  "arguments": {
//	    "url": "https://www.figma.com/file/abc/Checkout",
//	    "context": "new checkout designs for spring launch"
//	  }
//	}
//
// A link that is already indexed returns {"saved": false, "duplicate": true}
// together with the existing resource instead of an error.
//
// # Error Handling
//
// Tool failures are reported as JSON-RPC errors with structured data:
//
//	{"code": -32602, "message": "url parameter is required", "data": {"param": "url"}}
package mcp
