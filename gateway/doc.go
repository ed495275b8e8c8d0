// Package gateway is the single HTTP doorway to the platform API. One
// configured [Client] serves every feature module; a request decorator reads
// the current bearer token from the credential store on each outbound call
// and stamps the Authorization header, so no other component ever touches
// transport or credentials directly.
//
// Errors propagate to callers as [*APIError] for per-call handling. The
// client performs no retries. A 401 response optionally triggers the
// configured OnUnauthorized hook (the session manager wires its own Logout
// there) before the error is returned.
package gateway
