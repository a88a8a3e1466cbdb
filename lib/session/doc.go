// Package session implements the in-memory session store of the storefront api.
//
// Session ids are random uuids. A session expires after ttl without access, every
// successful Get extends it again. Expired sessions are removed lazily on access
// and periodically by a background sweeper.
package session
