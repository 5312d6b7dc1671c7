package main

import (
	"log"

	"github.com/Imaddindepf/tradeul-sub005/app"
	"github.com/Imaddindepf/tradeul-sub005/config"
)

func main() {
	// Load config from .env file
	cfg := config.LoadFromEnv()

	// Create and start app
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal(err)
	}
}
