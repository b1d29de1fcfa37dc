package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursemart/internal/database"
	"coursemart/internal/router"

	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if migrate {
				if err := database.AutoMigrate(a.db); err != nil {
					return err
				}
			}

			engine, err := router.Setup(a.cfg, a.db, a.deps)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go a.spooler.Run(ctx, a.cfg.Spool.DrainInterval)

			srv := &http.Server{
				Addr:         ":" + a.cfg.Server.Port,
				Handler:      engine,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			}
			go func() {
				log.Printf("server listening on :%s", a.cfg.Server.Port)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("listen: %v", err)
				}
			}()
			<-ctx.Done()
			log.Println("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			log.Println("server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "auto-migrate the schema before serving")
	return cmd
}
