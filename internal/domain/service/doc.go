// Package service provides the tool registry.
//
// Providers register a service definition; tool IDs take the form
// "<service>.<tool>" and are routed to the owning provider.
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(consoleProvider)
//	result, err := registry.Execute(ctx, "console.execute", params, appCtx)
package service
