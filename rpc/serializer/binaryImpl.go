package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dShop/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format.
//
// Layout: 1 byte MsgType, 2 bytes flags (big endian), followed by the present fields
// in the order of the flags. Integers take 8 bytes, strings and byte slices are
// prefixed with a 4 byte length. Ok is stored in the flags only.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasID       uint16 = 1 << 0
	hasUserID   uint16 = 1 << 1
	hasQuantity uint16 = 1 << 2
	hasText     uint16 = 1 << 3
	hasValue    uint16 = 1 << 4
	isOk        uint16 = 1 << 5
	hasErr      uint16 = 1 << 6
	hasCode     uint16 = 1 << 7
	hasMeta     uint16 = 1 << 8
)

// headerSize is the size of MsgType + flags
const headerSize = 3

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, b.sizeBytes(msg))

	// Write message type
	result[0] = byte(msg.MsgType)

	var flags uint16
	pos := headerSize

	if msg.ID != 0 {
		flags |= hasID
		pos = putUint64(result, pos, msg.ID)
	}
	if msg.UserID != 0 {
		flags |= hasUserID
		pos = putUint64(result, pos, msg.UserID)
	}
	if msg.Quantity != 0 {
		flags |= hasQuantity
		pos = putUint64(result, pos, uint64(msg.Quantity))
	}
	if msg.Text != "" {
		flags |= hasText
		pos = putBytes(result, pos, []byte(msg.Text))
	}
	if msg.Value != nil {
		flags |= hasValue
		pos = putBytes(result, pos, msg.Value)
	}
	if msg.Ok {
		flags |= isOk
	}
	if msg.Err != "" {
		flags |= hasErr
		pos = putBytes(result, pos, []byte(msg.Err))
	}
	if msg.Code != 0 {
		flags |= hasCode
		pos = putUint64(result, pos, msg.Code)
	}
	if msg.Meta != nil {
		flags |= hasMeta
		putBytes(result, pos, msg.Meta)
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(result[1:headerSize], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	msg.MsgType = common.MessageType(data[0])
	flags := binary.BigEndian.Uint16(data[1:headerSize])
	r := reader{data: data, pos: headerSize}

	msg.ID = 0
	if flags&hasID != 0 {
		msg.ID = r.uint64("id")
	}
	msg.UserID = 0
	if flags&hasUserID != 0 {
		msg.UserID = r.uint64("user id")
	}
	msg.Quantity = 0
	if flags&hasQuantity != 0 {
		msg.Quantity = int64(r.uint64("quantity"))
	}
	msg.Text = ""
	if flags&hasText != 0 {
		msg.Text = string(r.bytes("text"))
	}
	msg.Value = nil
	if flags&hasValue != 0 {
		msg.Value = clone(r.bytes("value"))
	}
	msg.Ok = flags&isOk != 0
	msg.Err = ""
	if flags&hasErr != 0 {
		msg.Err = string(r.bytes("error"))
	}
	msg.Code = 0
	if flags&hasCode != 0 {
		msg.Code = r.uint64("code")
	}
	msg.Meta = nil
	if flags&hasMeta != 0 {
		msg.Meta = clone(r.bytes("meta"))
	}

	return r.err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerSize

	if msg.ID != 0 {
		size += 8
	}
	if msg.UserID != 0 {
		size += 8
	}
	if msg.Quantity != 0 {
		size += 8
	}
	if msg.Text != "" {
		size += 4 + len(msg.Text)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Code != 0 {
		size += 8
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}

func putUint64(buf []byte, pos int, v uint64) int {
	binary.BigEndian.PutUint64(buf[pos:pos+8], v)
	return pos + 8
}

func putBytes(buf []byte, pos int, data []byte) int {
	binary.BigEndian.PutUint32(buf[pos:pos+4], uint32(len(data)))
	pos += 4
	copy(buf[pos:pos+len(data)], data)
	return pos + len(data)
}

// clone copies data into a new slice, an empty input results in an empty (non nil) slice
func clone(data []byte) []byte {
	if data == nil {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out
}

// reader reads fields sequentially and remembers the first error
type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) uint64(field string) uint64 {
	if r.err != nil {
		return 0
	}
	if r.pos+8 > len(r.data) {
		r.err = fmt.Errorf("data too short for %s", field)
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v
}

func (r *reader) bytes(field string) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+4 > len(r.data) {
		r.err = fmt.Errorf("data too short for %s length", field)
		return nil
	}
	n := int(binary.BigEndian.Uint32(r.data[r.pos : r.pos+4]))
	r.pos += 4
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf("data too short for %s data", field)
		return nil
	}
	v := r.data[r.pos : r.pos+n]
	r.pos += n
	return v
}
