package wire

import "encoding/binary"

// RspBuf is a writable buffer that reserves the leading 16-byte frame
// header plus the 9-byte response sub-header (1 type byte + 8-byte inner
// length). A handler that returns a value writes its encoded bytes
// directly past offset HeaderSize+respSubHeaderSize; Finish then decides
// the response type from the handler's error and patches every header in
// place.
type RspBuf struct {
	buf []byte
}

const respBufReserve = HeaderSize + respSubHeaderSize

// NewRspBuf returns an RspBuf with its headers reserved.
func NewRspBuf() *RspBuf {
	return &RspBuf{buf: make([]byte, respBufReserve)}
}

// Write implements io.Writer so a payload codec can encode the handler's
// return value directly into the buffer.
func (b *RspBuf) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Finish builds the complete response frame for id. If result is nil, the
// response is Ok and the bytes already written past the reserved header
// (by the handler, via Write) become the inner payload. Otherwise result
// must be a *Error (as produced by NewServerDeserializeError,
// NewServerSerializeError or Statusf); its Kind selects ty and its
// Message becomes the inner payload, discarding whatever the handler may
// have already written.
func (b *RspBuf) Finish(id uint64, result error) []byte {
	var ty byte
	var inner []byte

	switch e := result.(type) {
	case nil:
		ty = respTypeOK
		inner = b.buf[respBufReserve:]
	case *Error:
		switch e.Kind {
		case KindServerDeserialize:
			ty = respTypeServerDeserialize
		case KindServerSerialize:
			ty = respTypeServerSerialize
		default:
			ty = respTypeStatus
		}
		inner = []byte(e.Message)
	default:
		ty = respTypeStatus
		inner = []byte(result.Error())
	}

	b.buf = append(b.buf[:respBufReserve], inner...)

	binary.BigEndian.PutUint64(b.buf[0:8], id)
	binary.BigEndian.PutUint64(b.buf[8:16], uint64(respSubHeaderSize+len(inner)))
	b.buf[HeaderSize] = ty
	binary.BigEndian.PutUint64(b.buf[HeaderSize+1:HeaderSize+respSubHeaderSize], uint64(len(inner)))

	return b.buf
}

// finishPolling builds the ty=200 sentinel response frame. It is used only
// internally by tests and diagnostic paths that need to exercise the
// reader's polling filter; production handlers never produce it.
func finishPolling(id uint64) []byte {
	buf := make([]byte, respBufReserve)
	binary.BigEndian.PutUint64(buf[0:8], id)
	binary.BigEndian.PutUint64(buf[8:16], respSubHeaderSize)
	buf[HeaderSize] = respTypePolling
	binary.BigEndian.PutUint64(buf[HeaderSize+1:HeaderSize+respSubHeaderSize], 0)
	return buf
}

// FinishPolling is the exported form of finishPolling, for tests in other
// packages that need to inject a polling frame.
func FinishPolling(id uint64) []byte { return finishPolling(id) }
