package main

import (
	"context"
	"log"
	"os"

	"docfactory/internal/config"
	"docfactory/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil {
		log.Printf("docfactoryd: %v", err)
		os.Exit(1)
	}
}
