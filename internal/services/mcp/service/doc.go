// Package service wires the MCP protocol to the sheet tools.
//
// It owns server construction and transport selection; tool semantics live
// in the domain package.
package service
