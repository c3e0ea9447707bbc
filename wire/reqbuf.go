package wire

import "encoding/binary"

// ReqBuf is a writable buffer that reserves the leading 16-byte frame
// header so a caller's codec can serialize directly into the buffer that
// will go on the wire, without a subsequent copy. The write cursor starts
// at offset HeaderSize.
type ReqBuf struct {
	buf []byte
}

// NewReqBuf returns a ReqBuf with its header reserved.
func NewReqBuf() *ReqBuf {
	return &ReqBuf{buf: make([]byte, HeaderSize)}
}

// Write implements io.Writer so a payload codec can encode the call
// directly into the buffer.
func (b *ReqBuf) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Finish patches the header with id and the payload length, and returns
// the complete frame ready to hand to a QueuedWriter.
func (b *ReqBuf) Finish(id uint64) []byte {
	binary.BigEndian.PutUint64(b.buf[0:8], id)
	binary.BigEndian.PutUint64(b.buf[8:16], uint64(len(b.buf)-HeaderSize))
	return b.buf
}
