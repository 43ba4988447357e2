package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mercato_back_end/internal/cache"
	"mercato_back_end/internal/config"
	"mercato_back_end/internal/database"
	"mercato_back_end/internal/handlers/checkout"
	"mercato_back_end/internal/payments"
	"mercato_back_end/internal/repository"
	"mercato_back_end/internal/routes"
	"mercato_back_end/internal/service"
	"mercato_back_end/internal/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Connexion Postgres impossible : ", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("❌ Migration échouée : ", err)
	}
	if err := database.Seed(ctx, pool); err != nil {
		log.Fatal("❌ Seed échoué : ", err)
	}

	rdb := database.ConnectRedis(ctx, cfg)

	svc := &service.Service{
		Store:   repository.NewPostgresStore(pool),
		Gateway: payments.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret),
		Config:  cfg,
		Cache:   cache.NewProductCache(rdb),
		Mailer:  utils.NewEmailSender(cfg),
	}

	r := gin.Default()
	routes.RegisterRoutes(r, cfg, checkout.New(svc))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Println("🚀 Serveur Mercato lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("❌ Serveur arrêté : ", err)
		}
	}()

	<-ctx.Done()
	log.Println("⚠️ Arrêt demandé, fermeture du serveur...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("❌ Arrêt forcé : ", err)
	}
	log.Println("✅ Serveur arrêté proprement")
}
