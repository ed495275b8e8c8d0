// Package api binds the platform admin endpoints to typed Go methods. Each
// feature area (auth, users, plans, topics, user plans) is a small service
// over the shared gateway client; list reads go through the query cache with
// per-filter keys, and every mutation declares the resources it invalidates.
//
// Response envelopes mirror the platform wire format, which is not uniform:
// some detail endpoints return the record directly, others wrap it in a
// {"data": ...} envelope. The unwrapping here follows what the server
// actually sends per endpoint.
package api
