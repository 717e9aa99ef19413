// Command admin runs maintenance tasks: password hashing, migrations and the
// FastBill customer import.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	appMigrations "github.com/tutorlog/sessionlog/internal/app/migrations"
	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	appRepos "github.com/tutorlog/sessionlog/internal/app/repositories"
	appServices "github.com/tutorlog/sessionlog/internal/app/services"
	"github.com/tutorlog/sessionlog/internal/bootstrap"
	"github.com/tutorlog/sessionlog/internal/config"
	"github.com/tutorlog/sessionlog/internal/pkg/apperrors"
	"github.com/tutorlog/sessionlog/internal/pkg/logger"
	"github.com/tutorlog/sessionlog/internal/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := newCommandLine(os.Stdout)
	cli.migrate = migrate
	cli.sync = syncCustomers

	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			logger.Error().Err(err).Msg("Admin command failed")
		}
		stop()
		os.Exit(1)
	}
}

// connect loads the configuration and opens the database
func connect() (*config.Config, *pgxpool.Pool, zerolog.Logger, error) {
	cfg, err := config.Load(bootstrap.ConfigPath)
	if err != nil {
		return nil, nil, zerolog.Logger{}, fmt.Errorf("load configuration: %w", err)
	}
	lgr := bootstrap.SetupLogger(cfg)

	pool, err := bootstrap.ConnectDatabase(cfg, lgr)
	if err != nil {
		return nil, nil, lgr, err
	}
	return cfg, pool, lgr, nil
}

func migrate(ctx context.Context, direction string) (int64, error) {
	_, pool, lgr, err := connect()
	if err != nil {
		return 0, err
	}
	defer pool.Close()

	migrator, err := appMigrations.NewMigrator(pool, lgr)
	if err != nil {
		return 0, err
	}

	switch direction {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	}
	if err != nil {
		return 0, err
	}
	return migrator.Version(ctx)
}

func syncCustomers(ctx context.Context) (*dto.SyncResult, error) {
	cfg, pool, lgr, err := connect()
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	source, err := bootstrap.NewBillingSource(cfg, lgr)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, apperrors.ErrBillingNotConfigured
	}

	repos := appRepos.NewRepositories(pool)
	svc := appServices.NewBillingService(source, repos.CustomerRepository, metrics.New(), logger.Component("billing"))
	return svc.SyncCustomers(ctx)
}
