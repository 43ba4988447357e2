package database

import (
	"context"
	"log"
	"time"

	"mercato_back_end/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Connect ouvre le pool Postgres et vérifie la connexion
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("✅ Connecté à Postgres")
	return pool, nil
}

// ConnectRedis retourne nil si Redis n'est pas configuré : le cache produit
// est optionnel et le reste de l'application fonctionne sans
func ConnectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Println("⚠️ REDIS_HOST manquant — cache produits désactivé")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ Erreur connexion Redis (%v) — cache produits désactivé", err)
		return nil
	}

	log.Println("✅ Connecté à Redis")
	return rdb
}
