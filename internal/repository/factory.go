package repository

import (
	"log"

	"github.com/mannaza/mannaza/internal/config"
	"github.com/mannaza/mannaza/internal/repository/memory"
	"github.com/mannaza/mannaza/internal/repository/redis"
)

// NewRepository selects a backend from configuration: Redis when enabled,
// otherwise the in-memory store.
func NewRepository(cfg config.RedisConfig) (Repository, error) {
	if cfg.Enabled {
		log.Printf("Using Redis room repository at %s:%s", cfg.Host, cfg.Port)
		return redis.NewRepository(cfg)
	}

	log.Println("Using in-memory room repository")
	return memory.NewRepository(), nil
}
