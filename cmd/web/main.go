// Package main is the entry point for the cloudcost-guard web server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cloudcost-guard/internal/config"
	"github.com/cloudcost-guard/internal/web"
)

func main() {
	port := flag.Int("port", config.Get().Server.Port, "Port to run the web server on")
	flag.Parse()

	fmt.Println("💰 CloudCost Guard - Web Dashboard")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	server := web.NewServer(*port)
	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
