package main

import (
	"log"

	"tailor-backend/internal/bootstrap"
	"tailor-backend/internal/shared/server"
)

func main() {
	app := bootstrap.New()

	addr := server.Addr(app.Config.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
