// Package token decodes bearer access tokens far enough to read their
// self-describing expiry claim. It performs no signature verification: the
// admin console holds no signing keys, and the API server remains the only
// authority on token authenticity. Everything here is pure, synchronous, and
// free of network access.
package token
