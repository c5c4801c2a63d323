//go:build !windows

package main

import (
	"log"

	"screen-translator/src/screenshot"
)

func enableDPIAwareness() {}

func logMonitorConfiguration() {
	surfaces, err := screenshot.Surfaces()
	if err != nil {
		log.Printf("MONITOR: %v", err)
		return
	}
	log.Printf("MONITOR: %d surfaces, virtual %v", len(surfaces), screenshot.Virtual(surfaces))
}
