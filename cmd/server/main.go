// distmul-server: compute backend answering multiply and add requests
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"distmul/backend"
	"distmul/utils"
)

var (
	listen  = flag.String("listen", ":9000", "TCP address to listen on")
	workers = flag.Int("workers", runtime.GOMAXPROCS(0), "Goroutines used by parallel multiplications")
	verbose = flag.Bool("verbose", false, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	if *workers <= 0 {
		fmt.Fprintf(os.Stderr, "workers must be positive\n")
		os.Exit(2)
	}

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Listen failed: %v\n", err)
		os.Exit(1)
	}

	utils.Logf("SERVER", "Backend listening on %s (workers=%d)", ln.Addr(), *workers)
	utils.Logf("SERVER", "%s", backend.Capabilities())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := backend.NewServer(*workers)
	if err := srv.Serve(ctx, ln); err != nil {
		fmt.Fprintf(os.Stderr, "Serve failed: %v\n", err)
		os.Exit(1)
	}

	utils.Logf("SERVER", "Server done (%d requests, %d failed)", srv.Requests(), srv.Failures())
}
