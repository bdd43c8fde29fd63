package main

// Manual test client for the wire protocol. Connects to the service,
// encodes each stdin line as a length-prefixed message, and prints the
// framed responses.
//
// Usage:
//
//	go run test_remote_client.go -addr 127.0.0.1:7766
//	> supportsRemoteControl
//	< "true"
//	> requestTrackTitle
//	< "Echoes"

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7766", "Service address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", *addr, err)
	}
	defer conn.Close()

	fmt.Printf("Connected to %s. Type a command per line (e.g. supportsRemoteControl).\n", *addr)

	go printResponses(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		body := scanner.Text()
		msg := fmt.Sprintf("%d;%s", len(body), body)
		if _, err := conn.Write([]byte(msg)); err != nil {
			log.Fatalf("Write failed: %v", err)
		}
	}
}

// printResponses frames and prints everything the service sends back.
func printResponses(conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		prefix, err := r.ReadString(';')
		if err != nil {
			if err != io.EOF {
				log.Printf("Read failed: %v", err)
			}
			fmt.Println("Connection closed by service")
			os.Exit(0)
		}

		n, err := strconv.Atoi(prefix[:len(prefix)-1])
		if err != nil || n < 0 {
			log.Fatalf("Bad length prefix %q from service", prefix)
		}

		body := make([]byte, n)
		if _, err := io.ReadFull(r, body); err != nil {
			log.Fatalf("Failed to read %d-byte body: %v", n, err)
		}

		if len(body) > 256 {
			fmt.Printf("< %d bytes (truncated): %q...\n", n, body[:64])
		} else {
			fmt.Printf("< %q\n", body)
		}
	}
}
