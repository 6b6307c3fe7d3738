package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"hrcore/internal/domain/audit"
	"hrcore/internal/domain/notifications"
	"hrcore/internal/domain/org"
	"hrcore/internal/domain/payroll"
	"hrcore/internal/domain/payslip"
	"hrcore/internal/platform/config"
	"hrcore/internal/platform/db"
	"hrcore/internal/platform/email"
	"hrcore/internal/platform/storage"
)

type deps struct {
	cfg      config.Config
	pool     *pgxpool.Pool
	payslips *payslip.Service
	notifier *notifications.Service
}

func connect(ctx context.Context) (*deps, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	files, err := storage.New(cfg.PayslipDir, cfg.PayslipTempDir)
	if err != nil {
		pool.Close()
		return nil, err
	}
	mailer := email.New(cfg)
	notifier := notifications.New(pool, mailer, cfg.EmailFrom)
	payslipSvc := &payslip.Service{
		Store:       payslip.NewStore(pool),
		Payroll:     payroll.NewStore(pool),
		Org:         org.NewStore(pool),
		Files:       files,
		Mailer:      mailer,
		Audit:       audit.New(pool),
		Notifier:    notifier,
		CompanyName: cfg.CompanyName,
		From:        cfg.EmailFrom,
	}
	return &deps{
		cfg:      cfg,
		pool:     pool,
		payslips: payslipSvc,
		notifier: notifier,
	}, nil
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	root := &cobra.Command{
		Use:           "hrctl",
		Short:         "Operational commands for the HR core service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var cleanupDays int
	cleanupCmd := &cobra.Command{
		Use:   "cleanup-temp",
		Short: "Delete stale payslip temp files",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer d.pool.Close()

			deleted, err := d.payslips.CleanupTemp(cmd.Context(), time.Duration(cleanupDays)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d temp file(s)\n", deleted)
			return nil
		},
	}
	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 1, "delete temp files older than this many days")

	sendCmd := &cobra.Command{
		Use:   "send-payslip <payslip-id>",
		Short: "Email one payslip to its employee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer d.pool.Close()

			sent, err := d.payslips.SendEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("sent=%v\n", sent)
			return nil
		},
	}

	var sendYear, sendMonth int
	sendAllCmd := &cobra.Command{
		Use:   "send-period",
		Short: "Email every payslip of a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sendMonth < 1 || sendMonth > 12 {
				return fmt.Errorf("--month must be 1-12")
			}
			d, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer d.pool.Close()

			sent, failed, err := d.payslips.SendAll(cmd.Context(), payroll.PeriodKey{Year: sendYear, Month: sendMonth})
			if err != nil {
				return err
			}
			fmt.Printf("sent=%d failed=%d\n", sent, failed)
			return nil
		},
	}
	sendAllCmd.Flags().IntVar(&sendYear, "year", time.Now().Year(), "payroll period year")
	sendAllCmd.Flags().IntVar(&sendMonth, "month", int(time.Now().Month()), "payroll period month")

	var notifyTitle, notifyBody string
	notifyCmd := &cobra.Command{
		Use:   "notify <user-id>",
		Short: "Send a test payroll notification to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer d.pool.Close()

			if err := d.notifier.Create(cmd.Context(), args[0], notifications.TypePayrollProcessed, notifyTitle, notifyBody); err != nil {
				return err
			}
			fmt.Println("notification created")
			return nil
		},
	}
	notifyCmd.Flags().StringVar(&notifyTitle, "title", "Payroll notification test", "notification title")
	notifyCmd.Flags().StringVar(&notifyBody, "body", "This is a test of payroll notification delivery.", "notification body")

	root.AddCommand(cleanupCmd, sendCmd, sendAllCmd, notifyCmd)

	if err := root.ExecuteContext(context.Background()); err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
