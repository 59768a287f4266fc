package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/velumlaw/counsel/internal/adapter/postgres"
	"github.com/velumlaw/counsel/internal/config"
	"github.com/velumlaw/counsel/internal/domain/billing"
	"github.com/velumlaw/counsel/internal/service"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "create-account":
		return runAdminCreateAccount(args[1:])
	case "mint-key":
		return runAdminMintKey(args[1:])
	case "top-up":
		return runAdminTopUp(args[1:])
	case "grant-subscription":
		return runAdminGrantSubscription(args[1:])
	case "verify-key":
		return runAdminVerifyKey(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: counsel admin <command> [options]

Commands:
  create-account      Create an account with its credit ledger
  mint-key            Mint an API key for an account
  top-up              Raise an account's credit limit
  grant-subscription  Activate or extend an account's subscription
  verify-key          Resolve an API key to its account (key read from terminal)
  help                Show this help message

Examples:
  counsel admin create-account --account acct-1 --credit 100 --tokens 5000000
  counsel admin mint-key --account acct-1
  counsel admin top-up --account acct-1 --amount 50
  counsel admin grant-subscription --account acct-1 --plan pro --days 30
  counsel admin verify-key
`)
}

func loadAdminDeps() (*postgres.Store, *service.AuthService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.NewStore(pool)
	authSvc := service.NewAuthService(store, cfg.Auth.BcryptCost)

	cleanup := func() {
		pool.Close()
	}
	return store, authSvc, cleanup, nil
}

func runAdminCreateAccount(args []string) error {
	fs := flag.NewFlagSet("create-account", flag.ContinueOnError)
	account := fs.String("account", "", "account id (required)")
	credit := fs.Float64("credit", 0, "initial credit limit in USD")
	tokens := fs.Int64("tokens", 0, "initial app-token limit (0 = unlimited)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account == "" {
		return fmt.Errorf("--account is required")
	}

	store, _, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.EnsureAccount(context.Background(), *account, *credit, *tokens); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Account created: %s (credit=%.2f, tokens=%d)\n", *account, *credit, *tokens)
	return nil
}

func runAdminMintKey(args []string) error {
	fs := flag.NewFlagSet("mint-key", flag.ContinueOnError)
	account := fs.String("account", "", "account id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account == "" {
		return fmt.Errorf("--account is required")
	}

	store, authSvc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	plaintext, keyID, hash, err := authSvc.MintKey()
	if err != nil {
		return fmt.Errorf("mint key: %w", err)
	}
	if err := store.CreateAPIKey(context.Background(), *account, keyID, hash); err != nil {
		return fmt.Errorf("store key: %w", err)
	}

	// The plaintext is shown exactly once; only the hash is stored.
	fmt.Fprintf(os.Stderr, "API key for %s (save it now, it cannot be recovered):\n", *account)
	fmt.Println(plaintext)
	return nil
}

func runAdminTopUp(args []string) error {
	fs := flag.NewFlagSet("top-up", flag.ContinueOnError)
	account := fs.String("account", "", "account id (required)")
	amount := fs.Float64("amount", 0, "credit to add in USD (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account == "" {
		return fmt.Errorf("--account is required")
	}
	if *amount <= 0 {
		return fmt.Errorf("--amount must be positive")
	}

	store, _, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.TopUpCredit(context.Background(), *account, *amount); err != nil {
		return fmt.Errorf("top up: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Credit limit raised by %.2f for %s\n", *amount, *account)
	return nil
}

func runAdminGrantSubscription(args []string) error {
	fs := flag.NewFlagSet("grant-subscription", flag.ContinueOnError)
	account := fs.String("account", "", "account id (required)")
	plan := fs.String("plan", "standard", "plan name")
	days := fs.Int("days", 30, "validity in days from now")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account == "" {
		return fmt.Errorf("--account is required")
	}
	if *days <= 0 {
		return fmt.Errorf("--days must be positive")
	}

	store, _, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	sub := &billing.Subscription{
		AccountID: *account,
		Plan:      *plan,
		Active:    true,
		ExpiresAt: time.Now().AddDate(0, 0, *days),
	}
	if err := store.UpsertSubscription(context.Background(), sub); err != nil {
		return fmt.Errorf("grant subscription: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Subscription %s active for %s until %s\n",
		*plan, *account, sub.ExpiresAt.Format(time.DateOnly))
	return nil
}

func runAdminVerifyKey(args []string) error {
	fs := flag.NewFlagSet("verify-key", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := promptSecret("API key: ")
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}

	_, authSvc, cleanup, err := loadAdminDeps()
	if err != nil {
		return err
	}
	defer cleanup()

	accountID, err := authSvc.VerifyKey(context.Background(), key)
	if err != nil {
		return fmt.Errorf("verify key: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Key resolves to account %s\n", accountID)
	return nil
}

// promptSecret reads a line from the terminal without echoing.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
