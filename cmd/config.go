package main

import "time"

type Config struct {
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=5000"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	AllowedOrigins    []string      `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	SessionBufferSize int           `env:"SESSION_BUFFER_SIZE,default=64"`
	AuthTokenSecret   string        `env:"AUTH_TOKEN_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	StatsInterval     time.Duration `env:"STATS_INTERVAL,default=30s"`
}
