// pingwatch is a debugging consumer for the simulator's UDP output: it
// listens for observation frames, decodes them, and prints one line per
// observation.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/signalsfoundry/pinger-simulator/internal/wire"
)

func main() {
	listenAddr := flag.String("listen", ":4040", "UDP address to listen on for observation frames")
	flag.Parse()

	addr, err := net.ResolveUDPAddr("udp", *listenAddr)
	if err != nil {
		log.Fatalf("resolve %q: %v", *listenAddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		log.Fatalf("listen %q: %v", *listenAddr, err)
	}
	defer conn.Close()

	fmt.Fprintf(os.Stderr, "listening for observation frames on %s\n", conn.LocalAddr())

	buf := make([]byte, 2048)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			log.Fatalf("read: %v", err)
		}

		obs, err := wire.DecodeObservation(buf[:n])
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad frame from %s: %v\n", from, err)
			continue
		}

		fmt.Printf("[%s] %s frame=%s range=%.3fm bearing=%.4frad elevation=%.4frad\n",
			obs.Time.Format("15:04:05.000"),
			obs.PingerID,
			obs.FrameID,
			obs.Range,
			obs.Bearing,
			obs.Elevation,
		)
	}
}
