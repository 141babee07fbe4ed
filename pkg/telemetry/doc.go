// Package telemetry provides structured logging (zerolog), Prometheus
// metrics, and OpenTelemetry tracing for fieldgate nodes.
//
// Entities obtain component child loggers via Logger.NewComponentLogger
// and record gating, homeostasis, and handshake activity through the
// Metrics collector. Tracing is optional and disabled by default.
package telemetry
