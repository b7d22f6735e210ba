// Package service provides the operations layer of the pathfinder server.
//
// PathService sits between the transports (HTTP, WebSocket, MCP) and the
// per-session engines. It resolves sessions, loads maps from the map library,
// translates request values into grid coordinates and settings, and records
// run metrics.
//
// Errors returned by the service wrap one of ErrNotFound, ErrInvalidInput or
// ErrConflict so transports can map them to status codes with errors.Is.
//
// Usage:
//
//	reg := prometheus.NewRegistry()
//	svc := service.NewPathService(sessions, maps, service.WithMetrics(service.NewMetrics(reg)))
//
//	info, _ := svc.CreateSession(ctx, "classic")
//	_, _ = svc.SelectStart(ctx, info.ID, 0, 0)
//	_, _ = svc.SelectGoal(ctx, info.ID, 4, 4)
//	run, err := svc.FindPath(ctx, info.ID)
package service
