package base

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/ValentinKolb/dShop/rpc/transport"
)

// frameHeaderSize is shardID (8 bytes) + requestID (8 bytes) + payload length (4 bytes)
const frameHeaderSize = 20

// frame is one request or response on a stream connection.
// On the wire it is a header followed by the payload, all integers big endian:
//
//	| shardID uint64 | requestID uint64 | length uint32 | payload |
type frame struct {
	shardID   uint64
	requestID uint64
	payload   []byte
}

// writeTo writes the frame with a single vectored write.
// Payloads above limit are refused with a *transport.FrameTooLargeError and nothing is written.
func (f frame) writeTo(conn net.Conn, limit int) error {
	if len(f.payload) > limit {
		return &transport.FrameTooLargeError{Size: uint64(len(f.payload)), Limit: limit}
	}

	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint64(header[0:8], f.shardID)
	binary.BigEndian.PutUint64(header[8:16], f.requestID)
	binary.BigEndian.PutUint32(header[16:20], uint32(len(f.payload)))

	bufs := net.Buffers{header[:], f.payload}
	_, err := bufs.WriteTo(conn)
	return err
}

// readFrame reads the next frame from r. The payload is stored in buf if it fits,
// otherwise a new slice is allocated.
//
// A header announcing more than limit bytes yields a *transport.FrameTooLargeError
// together with the parsed ids. The payload is left unread in that case, so the
// stream is out of sync and the connection must be closed.
func readFrame(r io.Reader, buf []byte, limit int) (frame, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return frame{}, err
	}

	f := frame{
		shardID:   binary.BigEndian.Uint64(header[0:8]),
		requestID: binary.BigEndian.Uint64(header[8:16]),
	}
	size := binary.BigEndian.Uint32(header[16:20])
	if uint64(size) > uint64(limit) {
		return f, &transport.FrameTooLargeError{Size: uint64(size), Limit: limit}
	}

	if int(size) > cap(buf) {
		buf = make([]byte, size)
	}
	f.payload = buf[:size]
	if _, err := io.ReadFull(r, f.payload); err != nil {
		return frame{}, err
	}
	return f, nil
}
