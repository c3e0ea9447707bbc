// Command echoclient connects to an echoserver and exercises both demo
// operations once.
package main

import (
	"context"
	"flag"
	"log"
	"net"

	"github.com/damianoneill/rpcframe/client"
	"github.com/damianoneill/rpcframe/examples/echo"
	"github.com/damianoneill/rpcframe/transport"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}

	mc := client.NewMultiplex(context.Background(), transport.NewConnStream(conn))
	defer mc.Close()

	echoed, err := echo.Echo(mc, []byte("hello rpcframe"))
	if err != nil {
		log.Fatalf("echo: %v", err)
	}
	log.Printf("echo -> %s", echoed)

	sum, err := echo.Add(mc, 19, 23)
	if err != nil {
		log.Fatalf("add: %v", err)
	}
	log.Printf("add(19, 23) -> %d", sum)
}
