package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/erp/resale/internal/infrastructure/config"
	"github.com/erp/resale/internal/infrastructure/logger"
	"github.com/erp/resale/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

var errUsage = errors.New("usage")

// command is one migrate subcommand. File commands run without a database.
type command struct {
	name    string
	usage   string
	summary string
	minArgs int
	needsDB bool
	run     func(env *cmdEnv, args []string) error
}

type cmdEnv struct {
	log      *zap.Logger
	dir      string
	migrator *migration.Migrator
}

var commands = []command{
	{name: "up", summary: "Apply all pending migrations", needsDB: true, run: runUp},
	{name: "down", summary: "Roll back all migrations", needsDB: true, run: runDown},
	{name: "step", usage: "<n>", summary: "Apply n migrations (negative rolls back)", minArgs: 1, needsDB: true, run: runStep},
	{name: "goto", usage: "<version>", summary: "Migrate to a specific version", minArgs: 1, needsDB: true, run: runGoto},
	{name: "version", summary: "Show the current schema version", needsDB: true, run: runVersion},
	{name: "force", usage: "<version>", summary: "Set the version without migrating (clears dirty)", minArgs: 1, needsDB: true, run: runForce},
	{name: "drop", usage: "-confirm", summary: "Drop every table, staged imports and ledger included", needsDB: true, run: runDrop},
	{name: "create", usage: "<name> [description]", summary: "Write the next numbered up/down pair", minArgs: 1, run: runCreate},
	{name: "list", summary: "List migration files", run: runList},
}

func lookup(name string) (command, bool) {
	i := slices.IndexFunc(commands, func(c command) bool { return c.name == name })
	if i < 0 {
		return command{}, false
	}
	return commands[i], true
}

func main() {
	migrationsPath := flag.String("path", "", "Read migrations from a directory instead of the embedded schema")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	os.Exit(run(flag.Args(), *migrationsPath, *logLevel))
}

func run(args []string, migrationsPath, logLevel string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}
	cmd, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		printUsage()
		return 2
	}
	args = args[1:]
	if len(args) < cmd.minArgs {
		fmt.Fprintf(os.Stderr, "usage: migrate %s %s\n", cmd.name, cmd.usage)
		return 2
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync(log) }()

	env := &cmdEnv{log: log, dir: migrationsPath}
	if env.dir == "" && !cmd.needsDB {
		env.dir = resolveMigrationsDir()
	}
	if env.dir != "" {
		if env.dir, err = filepath.Abs(env.dir); err != nil {
			log.Error("Invalid migrations path", zap.Error(err))
			return 1
		}
	}

	if cmd.needsDB {
		closeFn, err := env.openMigrator()
		if err != nil {
			log.Error("Database unavailable", zap.Error(err))
			return 1
		}
		defer closeFn()
	}

	if err := cmd.run(env, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "usage: migrate %s %s\n", cmd.name, cmd.usage)
			return 2
		}
		log.Error("Command failed", zap.String("command", cmd.name), zap.Error(err))
		return 1
	}
	return 0
}

func (e *cmdEnv) openMigrator() (func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	var opts []migration.Option
	if e.dir != "" {
		opts = append(opts, migration.WithPath(e.dir))
	}
	m, err := migration.New(db, e.log, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	e.migrator = m
	return func() {
		_ = m.Close()
		_ = db.Close()
	}, nil
}

func runUp(env *cmdEnv, _ []string) error   { return env.migrator.Up() }
func runDown(env *cmdEnv, _ []string) error { return env.migrator.Down() }

func runStep(env *cmdEnv, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n == 0 {
		return errUsage
	}
	return env.migrator.Steps(n)
}

func runGoto(env *cmdEnv, args []string) error {
	version, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return errUsage
	}
	return env.migrator.GoTo(uint(version))
}

func runVersion(env *cmdEnv, _ []string) error {
	version, dirty, err := env.migrator.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		env.log.Info("No migrations applied")
		return nil
	}
	env.log.Info("Schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func runForce(env *cmdEnv, args []string) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return errUsage
	}
	env.log.Warn("Forcing schema version", zap.Int("version", version))
	return env.migrator.Force(version)
}

func runDrop(env *cmdEnv, args []string) error {
	if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
		return errUsage
	}
	return env.migrator.Drop()
}

func runCreate(env *cmdEnv, args []string) error {
	description := ""
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(env.dir, args[0], description)
	if err != nil {
		return err
	}
	env.log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up", mf.UpPath),
		zap.String("down", mf.DownPath),
	)
	return nil
}

func runList(env *cmdEnv, _ []string) error {
	names, err := migration.ListMigrations(env.dir)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// resolveMigrationsDir finds migrations/ in the working directory or two
// levels above the executable (bin/<os>/migrate)
func resolveMigrationsDir() string {
	if _, err := os.Stat(defaultMigrationsPath); err == nil {
		return defaultMigrationsPath
	}
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultMigrationsPath
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "Usage: migrate [flags] <command> [arguments]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-28s %s\n", c.name+" "+c.usage, c.summary)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Flags:")
	flag.PrintDefaults()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "The database connection is read from config.toml and ERP_DATABASE_* variables.")
}
