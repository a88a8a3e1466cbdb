package base

import (
	"bytes"
	"encoding/binary"
	"errors"
	"net"
	"testing"

	"github.com/ValentinKolb/dShop/rpc/transport"
)

func TestFrameRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	payload := bytes.Repeat([]byte{'a'}, 300)
	go func() {
		_ = frame{shardID: 7, requestID: 99, payload: payload}.writeTo(client, 1024)
		_ = frame{shardID: 7, requestID: 100}.writeTo(client, 1024)
	}()

	// the first payload does not fit into the buffer
	in, err := readFrame(server, make([]byte, 16), 1024)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if in.shardID != 7 || in.requestID != 99 || !bytes.Equal(in.payload, payload) {
		t.Fatalf("unexpected frame: shard %d request %d len %d", in.shardID, in.requestID, len(in.payload))
	}

	in, err = readFrame(server, make([]byte, 16), 1024)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if in.requestID != 100 || len(in.payload) != 0 {
		t.Fatalf("unexpected empty frame: request %d len %d", in.requestID, len(in.payload))
	}
}

func TestReadFrameRejectsOversizedHeader(t *testing.T) {
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint64(header[0:8], 3)
	binary.BigEndian.PutUint64(header[8:16], 12)
	binary.BigEndian.PutUint32(header[16:20], 0xFFFFFFFF)

	// no payload follows, the limit must be enforced before reading it
	in, err := readFrame(bytes.NewReader(header), nil, 1024)

	var tooLarge *transport.FrameTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected FrameTooLargeError, got %v", err)
	}
	if tooLarge.Size != 0xFFFFFFFF || tooLarge.Limit != 1024 {
		t.Fatalf("unexpected error values: %+v", tooLarge)
	}
	if in.shardID != 3 || in.requestID != 12 || in.payload != nil {
		t.Fatalf("expected the ids of the rejected frame, got %+v", in)
	}
}

func TestReadFrameAtLimit(t *testing.T) {
	var buf bytes.Buffer
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header[16:20], 8)
	buf.Write(header)
	buf.WriteString("12345678")

	in, err := readFrame(&buf, nil, 8)
	if err != nil {
		t.Fatalf("frame at the limit was rejected: %v", err)
	}
	if string(in.payload) != "12345678" {
		t.Fatalf("unexpected payload %q", in.payload)
	}
}

func TestWriteFrameRefusesOversizedPayload(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	err := frame{payload: make([]byte, 1025)}.writeTo(client, 1024)

	var tooLarge *transport.FrameTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected FrameTooLargeError, got %v", err)
	}
	if tooLarge.Size != 1025 || tooLarge.Limit != 1024 {
		t.Fatalf("unexpected error values: %+v", tooLarge)
	}
}
