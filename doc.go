// Package admincore provides the client-side core of the platform admin
// console: session lifecycle management, durable credential storage, offline
// bearer-token validation, an authenticated HTTP gateway, and a keyed
// query/mutation cache consumed by the typed API feature modules.
//
// The package is designed around one Session per process: a [Manager] built
// through [Builder.Build] owns the session state machine and is safe to call
// from multiple goroutines after construction.
//
// # Architecture boundaries
//
// admincore is the public surface. It exposes [Manager], [Builder], [Config],
// and value types (User, Snapshot, MetricsSnapshot, etc.). Credential storage
// lives in credstore, token decoding in token, transport in gateway, read/write
// caching in cache, and endpoint bindings in api. Notice dispatching lives
// under internal/ and is never exported directly.
//
// # What this package must NOT do
//
//   - Talk to the network. Only gateway issues requests; the Manager touches
//     nothing but its injected credential store and validator.
//   - Verify token signatures. The client holds no keys; validation is
//     limited to the self-describing expiry claim, and the server remains
//     the authority.
//   - Let an internal failure escape a Manager method. Decode, parse, and
//     storage errors all resolve to the anonymous state.
package admincore
