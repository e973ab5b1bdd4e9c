package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/unicampus/portal/internal/bootstrap"
	"github.com/unicampus/portal/internal/config"
	"github.com/unicampus/portal/internal/server"
	"github.com/unicampus/portal/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}
	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedAdminUser(db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis unreachable, live updates disabled: %v", err)
			redisClient = nil
		}
	} else {
		log.Println("REDIS_URL not set, live updates disabled")
	}

	srv := server.NewServer(db, redisClient)
	log.Printf("listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
