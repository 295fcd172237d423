// Package types holds the error taxonomy shared across packages.
//
// Every external-facing failure in the assistant is a *types.Error
// carrying a stable ErrorCode: configuration problems are fatal at
// startup and never retried; upstream service failures carry the HTTP
// status they mapped from and a retryability hint; index artifact
// problems (missing or inconsistent files) require a rebuild.
package types
