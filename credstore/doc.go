// Package credstore persists the admin console's credential entries: named
// values with an expiry and cookie-style attributes (path, SameSite, Secure).
// Exactly two entries matter in practice — the bearer token and the
// serialized session owner — and the session manager is the only writer.
//
// Three backends implement [Store]: a file store under the user config
// directory (default), an in-memory store for tests and ephemeral sessions,
// and a Redis store for shared kiosk deployments. New selects between them
// from configuration.
package credstore
