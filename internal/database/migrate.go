package database

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Les quatre tables du domaine. Les colonnes de remboursement sont ajoutées
// séparément en ADD COLUMN IF NOT EXISTS pour rester compatible avec une base
// créée avant leur introduction.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id         BIGSERIAL PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		first_name TEXT,
		last_name  TEXT,
		phone      TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT,
		price       NUMERIC(18,2) NOT NULL,
		quantity    BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id                BIGSERIAL PRIMARY KEY,
		order_number      BIGINT NOT NULL,
		customer_id       BIGINT NOT NULL REFERENCES customers(id),
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		order_status      TEXT NOT NULL,
		payment_status    TEXT NOT NULL,
		stripe_session_id TEXT NOT NULL DEFAULT '',
		payment_intent_id TEXT NOT NULL DEFAULT '',
		total_amount      NUMERIC(18,2) NOT NULL DEFAULT 0,
		paid_at           TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         BIGSERIAL PRIMARY KEY,
		order_id   BIGINT NOT NULL REFERENCES orders(id),
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity   BIGINT NOT NULL,
		unit_price NUMERIC(18,2) NOT NULL
	)`,
	`ALTER TABLE orders ADD COLUMN IF NOT EXISTS refund_id TEXT`,
	`ALTER TABLE orders ADD COLUMN IF NOT EXISTS refunded_at TIMESTAMPTZ`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	log.Println("✅ Schéma de base de données à jour")
	return nil
}

// Seed insère le catalogue de démonstration si la table products est vide
func Seed(ctx context.Context, pool *pgxpool.Pool) error {
	var count int64
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []struct {
		name, description string
		price             decimal.Decimal
		quantity          int64
	}{
		{"SSD 500GB", "Solid State Drive for fast loading.", decimal.RequireFromString("50.00"), 100},
		{"RAM DDR5 16GB", "High-speed DDR5 RAM module.", decimal.RequireFromString("85.50"), 80},
		{"Intel i5 CPU", "Latest generation Core i5 processor.", decimal.RequireFromString("220.99"), 50},
	}

	for _, p := range seed {
		if _, err := pool.Exec(ctx,
			`INSERT INTO products (name, description, price, quantity) VALUES ($1, $2, $3, $4)`,
			p.name, p.description, p.price, p.quantity); err != nil {
			return err
		}
	}

	log.Printf("✅ Catalogue initialisé (%d produits)", len(seed))
	return nil
}
