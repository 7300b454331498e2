// Package main runs cloudcost-guard as an MCP server over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/cloudcost-guard/internal/config"
	"github.com/cloudcost-guard/internal/controller"
	"github.com/cloudcost-guard/internal/mcpserver"
)

func main() {
	cfg := config.Get()
	// stdout carries the protocol, so logs go to stderr
	ctrl := controller.New(
		controller.WithConfig(cfg),
		controller.WithLogger(controller.NewLogger(cfg, "mcp", os.Stderr)),
	)
	defer ctrl.Close()

	if err := mcpserver.Serve(ctrl, cfg.UI.Version); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}
