// Package common provides the capability contract shared by the agent and
// the MCP server, plus argument decoding and instrumentation helpers.
package common
