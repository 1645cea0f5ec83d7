package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/m3rciful/orderbot/core/cmd"
	"github.com/m3rciful/orderbot/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	if err := cmd.Run(cmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	}); err != nil {
		log.Fatalf("orderbot: %v", err)
	}
}
