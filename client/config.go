package main

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress   string        `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	RoomID          string        `env:"CHAT_ROOM_ID,default=general"`
	LogLevel        string        `env:"LOG_LEVEL,default=ERROR"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=2s"`
	Email           string        `env:"CHAT_EMAIL"`
	Password        string        `env:"CHAT_PASSWORD"`
}

func loadConfig() (Config, error) {
	_ = godotenv.Load()

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	return config, err
}
