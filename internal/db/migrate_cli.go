package db

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cms-cvs-history/SimTracker-TrackAssociation/internal/monitoring"
)

// RunMigrateCommand handles the 'migrate' subcommand. Output meant for the
// operator goes to out; progress goes through monitoring.Logf.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return fmt.Errorf("missing migrate action")
	}
	action := args[0]
	if action == "help" {
		PrintMigrateHelp(out)
		return nil
	}

	database, err := OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()
	migrationsFS := MigrationsFS()

	switch action {
	case "up":
		monitoring.Logf("Running migrations...")
		if err := database.MigrateUp(migrationsFS); err != nil {
			return err
		}
	case "down":
		monitoring.Logf("Rolling back one migration...")
		if err := database.MigrateDown(migrationsFS); err != nil {
			return err
		}
	case "status":
		// printed below
	case "version":
		if len(args) < 2 {
			return fmt.Errorf("usage: trackassoc migrate version <version_number>")
		}
		v, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version number %q: %w", args[1], err)
		}
		if err := database.MigrateTo(migrationsFS, uint(v)); err != nil {
			return err
		}
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: trackassoc migrate force <version_number>")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version number %q: %w", args[1], err)
		}
		monitoring.Logf("Forcing migration version to %d", v)
		if err := database.MigrateForce(migrationsFS, v); err != nil {
			return err
		}
	default:
		PrintMigrateHelp(out)
		return fmt.Errorf("unknown migrate action: %s", action)
	}

	st, err := database.Status(migrationsFS)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "current version: %d\n", st.Current)
	fmt.Fprintf(out, "latest available: %d\n", st.Latest)
	fmt.Fprintf(out, "dirty: %v\n", st.Dirty)
	if st.Dirty {
		fmt.Fprintln(out, "database is dirty; inspect it and run: trackassoc migrate force <version>")
	} else if st.PendingCount > 0 {
		fmt.Fprintf(out, "%d migration(s) pending; run: trackassoc migrate up\n", st.PendingCount)
	}
	return nil
}

// PrintMigrateHelp writes usage for the migrate subcommand.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Database Migration Commands

Usage: trackassoc migrate <command> [options]

Commands:
  up              Apply all pending migrations
  down            Roll back one migration
  status          Show current migration status and version
  version <N>     Migrate to specific version N
  force <N>       Force migration version to N (recovery only)
  help            Show this help message

Options:
  -db <path>      Path to database file (default: trackassoc.db)
`)
}
