package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"coursemart/config"
	"coursemart/internal/database"
	"coursemart/internal/events"
	"coursemart/internal/handler"
	"coursemart/internal/router"
	"coursemart/internal/ws"
	"coursemart/pkg/cloudinary"
	"coursemart/pkg/payment"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// app holds every long-lived collaborator so commands can share one setup and one teardown.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	deps    router.Deps
	spooler *events.SpoolingPublisher
	closers []func() error
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	a := &app{cfg: cfg, db: db}

	a.deps.Gateway = newGateway(cfg)
	a.deps.Hub = ws.NewHub()
	a.deps.WebhookSources = map[string]handler.WebhookSource{
		"paystack": {Header: "x-paystack-signature", Verifier: payment.NewPaystackVerifier(cfg.Payment.WebhookSecret)},
		"generic":  {Header: "X-Webhook-Signature", Verifier: payment.NewSHA256Verifier(cfg.Payment.WebhookSecret)},
	}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Printf("[redis] %s unreachable, course reads go to the database: %v", cfg.Redis.Addr, err)
			rdb.Close()
		} else {
			log.Printf("[redis] course cache enabled at %s", cfg.Redis.Addr)
			a.deps.Redis = rdb
			a.closers = append(a.closers, rdb.Close)
		}
	}

	if cfg.Cloudinary.Enabled() {
		media, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("cloudinary: %w", err)
		}
		a.deps.Media = media
	}

	if err := a.setupPublisher(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func newGateway(cfg *config.Config) payment.Gateway {
	if cfg.Payment.Provider == "stub" {
		log.Printf("[payment] using stub gateway; no money moves")
		return payment.NewStubGateway(cfg.Payment.CallbackURL)
	}
	if cfg.Payment.SecretKey == "" {
		log.Printf("[payment] COURSEMART_PAYMENT_SECRET_KEY is empty; paystack calls will be rejected")
	}
	return payment.NewPaystackGateway(cfg.Payment.BaseURL, cfg.Payment.SecretKey)
}

// setupPublisher puts the bolt spool in front of RabbitMQ, or in front of the log when the
// broker is disabled or unreachable.
func (a *app) setupPublisher() error {
	var next events.Publisher = events.LogPublisher{}
	if a.cfg.RabbitMQ.Enabled {
		conn, ch, err := events.SetupConn(a.cfg.RabbitMQ.URL, a.cfg.RabbitMQ.Exchange, 5)
		if err != nil {
			log.Printf("[events] rabbitmq unavailable, events are logged and spooled: %v", err)
		} else {
			rp := events.NewRabbitPublisher(conn, ch, a.cfg.RabbitMQ.Exchange)
			a.closers = append(a.closers, rp.Close)
			next = rp
		}
	}
	spool, err := events.OpenSpool(a.cfg.Spool.Path)
	if err != nil {
		return fmt.Errorf("spool: %w", err)
	}
	a.closers = append(a.closers, spool.Close)
	a.spooler = events.NewSpoolingPublisher(next, spool)
	a.deps.Publisher = a.spooler
	return nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("[shutdown] %v", err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
