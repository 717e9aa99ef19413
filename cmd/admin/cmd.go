package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/tutorlog/sessionlog/internal/app/models/dto"
	"github.com/tutorlog/sessionlog/internal/pkg/auth"
	"golang.org/x/term"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	out          io.Writer
	readPassword func(fd int) ([]byte, error)
	hash         func(password string) (string, error)

	// connect lazily so hash-password works without a database
	migrate func(ctx context.Context, direction string) (int64, error)
	sync    func(ctx context.Context) (*dto.SyncResult, error)
}

func newCommandLine(out io.Writer) *commandLine {
	return &commandLine{
		out:          out,
		readPassword: term.ReadPassword,
		hash:         auth.HashPassword,
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  hash-password                  - prompt for a password and print its bcrypt hash for ADMIN_PASSWORD")
	fmt.Fprintln(cli.out, "  migrate [-direction up|down|version] - apply, roll back or show database migrations")
	fmt.Fprintln(cli.out, "  sync-customers                 - import new customers from FastBill")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	migrateCmd := flag.NewFlagSet("migrate", flag.ContinueOnError)
	migrateCmd.SetOutput(cli.out)
	direction := migrateCmd.String("direction", "up", "up, down or version")

	switch args[1] {
	case "hash-password":
		return cli.hashPassword()

	case "migrate":
		if err := migrateCmd.Parse(args[2:]); err != nil {
			return err
		}
		switch *direction {
		case "up", "down", "version":
		default:
			migrateCmd.Usage()
			return errHelp
		}
		version, err := cli.migrate(ctx, *direction)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "schema version: %d\n", version)
		return nil

	case "sync-customers":
		res, err := cli.sync(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "fetched: %d, created: %d, skipped: %d\n", res.Fetched, res.Created, res.Skipped)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) hashPassword() error {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := cli.readPassword(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if len(pwd) == 0 {
		return errors.New("password must not be empty")
	}

	fmt.Fprint(cli.out, "Repeat password:")
	again, err := cli.readPassword(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return err
	}
	if string(again) != string(pwd) {
		return errors.New("passwords do not match")
	}

	hash, err := cli.hash(string(pwd))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, hash)
	return nil
}
