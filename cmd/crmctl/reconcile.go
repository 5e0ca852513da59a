package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/crm/backend/internal/application/consistency"
	partnerapp "github.com/crm/backend/internal/application/partner"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func reconcileCmd(g *globals) *cobra.Command {
	var customer string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute customer order aggregates from the orders table",
		Long: `Recompute orderHistory, totalSpending and lastVisit for customers.

Every customer is checked unless --customer names one. Customers whose
stored aggregates already match their orders are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var id uuid.UUID
			if customer != "" {
				parsed, err := uuid.Parse(customer)
				if err != nil {
					return fmt.Errorf("invalid customer ID %q", customer)
				}
				id = parsed
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runReconcile(ctx, g, id, cmd)
		},
	}
	cmd.Flags().StringVar(&customer, "customer", "", "Reconcile only this customer ID")
	return cmd
}

func runReconcile(ctx context.Context, g *globals, customerID uuid.UUID, cmd *cobra.Command) error {
	cfg, log, err := g.setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	gormLog := logger.NewGormLogger(log, gormlogger.Warn, cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	customers := persistence.NewGormCustomerRepository(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)
	scope := persistence.NewGormConsistencyScope(db.DB, consistency.ModeTransactional)
	service := partnerapp.NewCustomerService(customers, orders, scope, nil, log)

	if customerID != uuid.Nil {
		result, err := service.Reconcile(ctx, customerID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "customer %s: corrected=%t orders=%d totalSpending=%.2f\n",
			result.Customer.ID, result.Corrected, len(result.Customer.Orders), result.Customer.TotalSpending)
		return nil
	}

	corrected, err := service.ReconcileAll(ctx)
	if err != nil {
		return err
	}
	log.Info("Reconciliation finished", zap.Int("corrected", corrected))
	fmt.Fprintf(cmd.OutOrStdout(), "%d customers corrected\n", corrected)
	return nil
}
