// Package app hosts the bridge: the one canonical implementation of the
// capability set that every front-end namespace is bound to.
//
// Responsibilities:
// - Implement Greet, GetApplicationInfo and GetSystemInfo.
// - Track host readiness across the shell lifecycle hooks.
// - Publish lifecycle notifications and per-operation metrics.
//
// Non-responsibilities:
// - JSON-RPC/HTTP protocol handling and namespace-to-method mapping.
package app
