// Command echoserver runs the echo demo service over TCP.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/damianoneill/rpcframe/examples/echo"
	"github.com/damianoneill/rpcframe/server"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "listen address")
	flag.Parse()

	ctx := server.WithServerTrace(context.Background(), server.DiagnosticLoggingHooks)

	s, err := server.NewServer(ctx, "tcp", *addr, echo.Handler)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}

	log.Printf("echoserver listening on %s", s.Addr())
	s.Join()
}
