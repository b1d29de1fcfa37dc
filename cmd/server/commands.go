package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"coursemart/config"
	"coursemart/internal/auth"
	"coursemart/internal/database"
	"coursemart/internal/domain"
	"coursemart/internal/router"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := database.AutoMigrate(a.db); err != nil {
				return err
			}
			fmt.Println("schema up to date")
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Settle PENDING transactions older than the pending TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if olderThan <= 0 {
				olderThan = a.cfg.Payment.PendingTTL
			}
			payments, _, err := router.Services(a.cfg, a.db, a.deps)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			res, err := payments.Sweep(ctx, olderThan)
			if err != nil {
				return err
			}
			// Push anything the broker refused before exiting.
			a.spooler.Flush(ctx)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "age threshold (defaults to payment.pending_ttl)")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		userID uint
		email  string
		role   string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		Example: `  coursemart token --user 7 --role STUDENT
  coursemart token --user 1 --role ADMIN --email admin@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			role = strings.ToUpper(role)
			switch role {
			case domain.RoleStudent, domain.RoleInstructor, domain.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			if userID == 0 {
				return fmt.Errorf("--user is required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := auth.GenerateAccessToken(&cfg.JWT, userID, email, role)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "user id")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", domain.RoleStudent, "STUDENT, INSTRUCTOR or ADMIN")
	return cmd
}
