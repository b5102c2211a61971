package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/gameloans/core/internal/adapters/repository"
	"github.com/gameloans/core/internal/application/services"
	"github.com/gameloans/core/internal/domain/entities"
	"github.com/gameloans/core/internal/infrastructure/config"
	"github.com/gameloans/core/internal/infrastructure/database"
	"github.com/gameloans/core/internal/infrastructure/logger"
	"github.com/gameloans/core/internal/infrastructure/server"
	"github.com/gameloans/core/internal/ports"
)

// Build information, set with -ldflags
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "development"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the GameLoans API server",
		Long:  "Start the GameLoans API server with all configured routes and middleware",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the postgres store schema (up, down, version)",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Run up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return runMigration("up", steps)
		},
	}
	upCmd.Flags().Int("steps", 0, "Number of migrations to apply (0 = all)")

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Run down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			return runMigration("down", steps)
		},
	}
	downCmd.Flags().Int("steps", 0, "Number of migrations to revert (0 = all)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationVersion()
		},
	}

	migrateCmd.AddCommand(upCmd, downCmd, versionCmd)
	return migrateCmd
}

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the demo data set into empty collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDataStore(func(ctx context.Context, cfg *config.Config, ds *services.DataStore, appLogger *logger.Logger) error {
				report, err := services.NewSeeder(ds, cfg.Security.BcryptCost, appLogger).Run(ctx)
				if err != nil {
					return err
				}

				if len(report) == 0 {
					fmt.Println("All collections already hold data, nothing seeded")
					return nil
				}
				for _, collection := range ports.Collections {
					if n, ok := report[collection]; ok {
						fmt.Printf("Seeded %s: %d records\n", collection, n)
					}
				}
				return nil
			})
		},
	}
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create users in the directory",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")

			if name == "" || email == "" || password == "" {
				return errors.New("name, email and password are required")
			}

			return createUser(ports.CreateUserRequest{
				Name:     name,
				Email:    email,
				Password: password,
				Role:     entities.UserRole(role),
			})
		},
	}

	createUserCmd.Flags().String("name", "", "Display name (required)")
	createUserCmd.Flags().String("email", "", "User email (required)")
	createUserCmd.Flags().String("password", "", "User password (required)")
	createUserCmd.Flags().String("role", string(entities.UserRoleUser), "User role (admin, user)")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print GameLoans version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("GameLoans Core %s\n", Version)
			fmt.Printf("Build Date: %s\n", BuildDate)
			fmt.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg)
	if err != nil {
		appLogger.Errorw("Failed to open store", "driver", cfg.Store.Driver, "error", err)
		return err
	}
	defer store.Close()

	srv, err := server.New(cfg, store, appLogger)
	if err != nil {
		appLogger.Errorw("Failed to initialize server", "error", err)
		return err
	}

	appLogger.Infow("Starting GameLoans API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"store", cfg.Store.Driver,
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Errorw("Server failed", "error", err)
			return err
		}
		return nil
	case sig := <-quit:
		appLogger.Infow("Received shutdown signal", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Graceful shutdown failed", "error", err)
		return err
	}

	appLogger.Infow("Server stopped")
	return nil
}

// withDataStore opens the configured store and runs fn against a data store over it
func withDataStore(fn func(ctx context.Context, cfg *config.Config, ds *services.DataStore, appLogger *logger.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	return fn(ctx, cfg, services.NewDataStore(store, appLogger), appLogger)
}

func newMigrator() (*migrate.Migrate, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db.DB.DB, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migration instance: %w", err)
	}

	return m, db, nil
}

func runMigration(direction string, steps int) error {
	m, db, err := newMigrator()
	if err != nil {
		return err
	}
	defer db.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to run")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Printf("Migration %s completed successfully\n", direction)
	return nil
}

func showMigrationVersion() error {
	m, db, err := newMigrator()
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
	return nil
}

func createUser(req ports.CreateUserRequest) error {
	return withDataStore(func(ctx context.Context, cfg *config.Config, ds *services.DataStore, appLogger *logger.Logger) error {
		authService := services.NewAuthService(ds, services.NewValidator(ds.Now), cfg.JWT, cfg.Security.BcryptCost, appLogger)

		user, err := authService.CreateUser(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Printf("User created: id=%s email=%s role=%s\n", user.ID, user.Email, user.Role)
		return nil
	})
}
