package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/messagely/backend/internal/server"
	"github.com/messagely/backend/internal/server/config"
)

func main() {

	ctx := context.Background()

	_ = godotenv.Load()

	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
