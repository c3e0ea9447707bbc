package server

import (
	"github.com/damianoneill/rpcframe/wire"
)

// Handler is the single abstraction the server engine invokes for every
// decoded request: it receives the request's opaque payload and a RspBuf
// to write its encoded return value into, and reports failure by
// returning a *wire.Error (built with wire.NewServerDeserializeError,
// wire.NewServerSerializeError or wire.Statusf) or nil for success. This
// is the core's only contract with the user-facing service/macro layer
// that is out of scope for this module: whatever shape a generated
// service takes, it resolves to one call through this interface.
type Handler interface {
	Handle(req []byte, rsp *wire.RspBuf) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(req []byte, rsp *wire.RspBuf) error

// Handle calls f.
func (f HandlerFunc) Handle(req []byte, rsp *wire.RspBuf) error {
	return f(req, rsp)
}

// invoke calls h.Handle under panic isolation: a panicking handler never
// brings down the connection or the server, it surfaces to the caller as
// a Status error instead.
func invoke(h Handler, req []byte, rsp *wire.RspBuf, trace *Trace) (err error) {
	defer func() {
		if r := recover(); r != nil {
			trace.PanicRecovered(r)
			incPanicsRecovered()
			err = wire.Statusf("rpc panicked in server!")
		}
	}()

	incRequestsHandled()
	return h.Handle(req, rsp)
}
