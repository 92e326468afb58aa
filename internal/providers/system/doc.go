// Package system provides the system service: process information and a
// ring buffer of recent tool calls fed by the service registry.
package system
