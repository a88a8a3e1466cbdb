// Package api implements the REST storefront of dShop.
//
// The server exposes a shop.IShop as JSON over HTTP. It works with a shard of the
// local RPC server as well as with an RPC client of a remote shard (gateway mode).
//
// Users are identified by the session cookie "dshop.sid". Passwords are stored as
// bcrypt hashes. Routes that change the catalog or the status of orders require the
// admin role, which the first registered user and the configured admin users get.
//
// Errors are returned as {"message": "..."} with the status derived from the
// shop.RetCode (NotFound 404, Conflict 409, InvalidInput and InvalidOperation 400).
//
// Besides the /api routes the server offers /healthz and /metrics (Prometheus text
// format, per route request counters and durations, active sessions, process metrics).
package api
