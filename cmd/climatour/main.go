package main

import (
	"log"

	"github.com/climatour/climatour-service/internal/climatour"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	s := climatour.New()
	s.Logger.Info("starting climatour service")
	s.Start()
}
