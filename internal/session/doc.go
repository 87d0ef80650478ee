// Package session provides the Redis-backed server-side session store.
//
// A session binds an opaque random identifier, held by the client, to a user id.
// The store only creates, reads and destroys records; it never decides whether a
// request is allowed through. That belongs to the session gate in package auth.
package session
