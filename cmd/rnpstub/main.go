// Command rnpstub runs the demo TCP accept/read/close server manually, for
// exercising rnp against a known target outside of the test suite.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/nikking/rnp/stub"
	"golang.org/x/sys/unix"
)

var flagAddr = flag.String("address", "0.0.0.0:11337", "address to listen on")

func main() {
	flag.Parse()

	server, err := stub.Listen(stub.Config{Address: *flagAddr})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("stub TCP server listening on %s\n", server.Addr())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM)
	<-sigCh

	log.Println("stopping stub server")
	if err := server.Close(); err != nil {
		log.Println("error closing stub server:", err)
	}
}
