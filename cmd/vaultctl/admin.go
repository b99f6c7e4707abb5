package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/app"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/config"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/event"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/repository/postgres"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/service"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/storage/memory"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/migrations"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/database"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/logger"
)

// actor is recorded in the audit log for users created from the command line.
const actor = "vaultctl"

// readPassword is swapped out in tests.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// adminCreator is the part of *service.UserService create-admin needs.
type adminCreator interface {
	CreateUser(ctx context.Context, actor string, input service.AdminUserInput) (*domain.User, error)
}

type adminFlags struct {
	username, email, phone string
}

func parseAdminFlags(args []string, stderr io.Writer) (adminFlags, error) {
	var f adminFlags
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.username, "username", "", "administrator username (3-20 characters)")
	fs.StringVar(&f.email, "email", "", "administrator email address")
	fs.StringVar(&f.phone, "phone", "", "administrator phone number")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.username == "" || f.email == "" || f.phone == "" {
		return f, errors.New("-username, -email and -phone are required")
	}
	return f, nil
}

// promptPassword reads the password twice without echo.
func promptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	first, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if !bytes.Equal(first, second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func createAdmin(ctx context.Context, users adminCreator, f adminFlags, password string, stdout io.Writer) error {
	u, err := users.CreateUser(ctx, actor, service.AdminUserInput{
		Username: f.username,
		Password: password,
		Email:    f.email,
		Phone:    f.phone,
		Role:     domain.RoleAdmin,
		Status:   domain.StatusActive,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	fmt.Fprintf(stdout, "created administrator %s (%s)\n", u.Username, u.ID)
	return nil
}

// runCreateAdmin connects to the configured database, applies migrations and
// inserts the administrator.
func runCreateAdmin(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseAdminFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(app.ServiceName, cfg.LogLevel, "text", stderr)

	password, err := promptPassword(stderr)
	if err != nil {
		return err
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	userRepo := postgres.NewUserRepository(pool)
	refresh := service.NewRefreshStore(postgres.NewRefreshTokenRepository(pool), userRepo, cfg.RefreshExpiry, log)
	users := service.NewUserService(
		userRepo,
		refresh,
		memory.New(cfg.PublicURL),
		postgres.NewAuditLogRepository(pool),
		event.NewProducer(event.Discard{}),
		cfg.PhoneRegion,
		log.With(slog.String("command", "create-admin")),
	)
	return createAdmin(ctx, users, f, password, stdout)
}
