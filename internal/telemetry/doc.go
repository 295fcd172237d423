// Package telemetry wraps OpenTelemetry SDK setup for traces.
// This package is internal and should not be imported by external projects.
package telemetry
