package main

import (
	"log"

	"github.com/cogniolab/hybrid/hybridd/server"
)

func main() {
	serverInstance := server.New()
	if err := serverInstance.Start(); err != nil {
		log.Fatal("[Hybrid] Failed to start server: ", err)
	}
}
