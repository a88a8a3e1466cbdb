// Package base implements the stream transport shared by the tcp and unix transports
// of the dShop RPC system. The protocol specific parts (dialing, listening and socket
// options) are injected through IClientConnector and IServerConnector.
//
// Wire Format:
//
//	Every request and response is one frame: a 20 byte header holding the shard id,
//	the request id and the payload length (big endian), followed by the payload.
//	Both sides refuse payloads above SocketConf.FrameLimit with a
//	*transport.FrameTooLargeError. The reader checks the announced length before
//	allocating, so a forged header can not make a server reserve memory. A server
//	closes a connection that announces an oversized frame and reports it to the
//	registered transport.RejectHandleFunc.
//
// Client:
//
//	clientTransport keeps ConnectionsPerEndpoint streams per endpoint and picks one
//	round robin per attempt. Responses are matched to their request by id, so many
//	requests can be in flight on one stream. When a stream breaks every request
//	waiting on it fails at once and the stream is dialed again. Failed attempts are
//	retried with exponential backoff.
//
// Server:
//
//	serverTransport reads frames into pooled buffers and hands each one to a worker.
//	At most WorkersPerConn requests of one connection run concurrently. Close stops
//	the accept loop and closes all open connections.
package base
