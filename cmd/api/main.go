package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"printshop-backend/pkg/logger"
)

func main() {
	// .env is for local development; deployed environments set variables
	// directly
	envFileErr := godotenv.Load()

	env := getEnv("APP_ENV", "development")
	logger.Init(env)

	if envFileErr != nil {
		log.Info().Msg("No .env file found, using system environment variables")
	}

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	Serve()
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
