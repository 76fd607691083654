package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/cashbook/internal/domain"
	"github.com/iho/cashbook/internal/infrastructure/auth"
	"github.com/iho/cashbook/internal/infrastructure/config"
	"github.com/iho/cashbook/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
	token   string
)

type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
}

// errInconsistent makes the process exit non-zero when balances drift.
var errInconsistent = errors.New("ledger is inconsistent")

// Seams for tests.
var (
	loadConfig     = config.Load
	newMigrator    = func(cfg *config.Config) migrator {
		return postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, zerolog.New(os.Stderr))
	}
	httpClientFunc = func() *http.Client { return &http.Client{Timeout: timeout} }
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "cashbook-cli",
		Short:        "Cashbook CLI tool",
		Long:         `A command line interface for operating the Cashbook ledger service.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the Cashbook API")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("CASHBOOK_TOKEN"), "Bearer token for the API")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}
	ledgerCmd.AddCommand(consistencyCmd())

	root.AddCommand(ledgerCmd, tokenCmd(), migrateCmd(), accountNoCmd())
	return root
}

func consistencyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consistency",
		Short: "Check that every cached balance matches the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConsistency(cmd.OutOrStdout())
		},
	}
}

type consistencyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Report  struct {
		Consistent         bool `json:"consistent"`
		TotalAccounts      int  `json:"total_accounts"`
		ReconciledAccounts int  `json:"reconciled_accounts"`
		Discrepancies      []struct {
			AccountCode       int64  `json:"account_code"`
			AccountNo         string `json:"account_no"`
			RecordedBalance   string `json:"recorded_balance"`
			CalculatedBalance string `json:"calculated_balance"`
			Difference        string `json:"difference"`
		} `json:"discrepancies"`
	} `json:"report"`
}

func checkConsistency(out io.Writer) error {
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(baseURL, "/")+"/api/ledger/consistency", nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClientFunc().Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	var result consistencyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("consistency check failed (status %d): %s", resp.StatusCode, result.Message)
	}

	report := result.Report
	fmt.Fprintf(out, "Accounts checked: %d, reconciled: %d\n", report.TotalAccounts, report.ReconciledAccounts)
	if report.Consistent {
		fmt.Fprintln(out, "Consistency check PASSED")
		return nil
	}

	fmt.Fprintln(out, "Consistency check FAILED")
	for _, d := range report.Discrepancies {
		fmt.Fprintf(out, "  %d %-50s recorded=%s calculated=%s diff=%s\n",
			d.AccountCode, d.AccountNo, d.RecordedBalance, d.CalculatedBalance, d.Difference)
	}
	return errInconsistent
}

func tokenCmd() *cobra.Command {
	var (
		userCode int64
		username string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userCode <= 0 {
				return errors.New("--user must be a positive user code")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return config.ErrMissingJWTSecret
			}

			signed, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration).Generate(userCode, username)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userCode, "user", 0, "User code to embed in the token")
	cmd.Flags().StringVar(&username, "username", "", "Optional display name")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	withMigrator := func(fn func(cmd *cobra.Command, m migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return fn(cmd, newMigrator(cfg))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: withMigrator(func(cmd *cobra.Command, m migrator) error {
				return m.Up()
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: withMigrator(func(cmd *cobra.Command, m migrator) error {
				return m.Down()
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			RunE: withMigrator(func(cmd *cobra.Command, m migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d", version)
				if dirty {
					fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}),
		},
	)
	return cmd
}

func accountNoCmd() *cobra.Command {
	var prefix, branch, bank string

	cmd := &cobra.Command{
		Use:   "accountno",
		Short: "Preview the account number built from a prefix, branch address and bank name",
		RunE: func(cmd *cobra.Command, args []string) error {
			accountNo, err := domain.BuildAccountNo(prefix, branch, bank)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d/%d)\n", accountNo, utf8.RuneCountInString(accountNo), domain.MaxAccountNoLength)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "Account prefix")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch address")
	cmd.Flags().StringVar(&bank, "bank", "", "Bank name")
	return cmd
}
