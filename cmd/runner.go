package main

import (
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicbridge/internal/catalog"
	"github.com/desertthunder/musicbridge/internal/services"
	"github.com/desertthunder/musicbridge/internal/shared"
	"github.com/desertthunder/musicbridge/internal/tasks"
	"github.com/desertthunder/musicbridge/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	youtube services.Service
	spotify services.Service
	logger  *log.Logger
	output  io.Writer

	db    *sql.DB
	store *catalog.Store
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	YouTube services.Service
	Spotify services.Service
	Logger  *log.Logger
	Output  io.Writer
	Store   *catalog.Store
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		youtube: opts.YouTube,
		spotify: opts.Spotify,
		logger:  opts.Logger,
		output:  opts.Output,
		store:   opts.Store,
	}
}

// openStore opens the catalog database and runs pending migrations.
// The handle is cached for the life of the process.
func (r *Runner) openStore() (*catalog.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	r.db = db
	r.store = catalog.New(db)
	return r.store, nil
}

// Close releases the database handle if one was opened.
func (r *Runner) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// newEngine wires a task engine over the catalog. When reverse is set the
// services swap roles: the target becomes the library of record for the
// operation and writes land on the usual source.
func (r *Runner) newEngine(reverse bool) (*tasks.Engine, error) {
	store, err := r.openStore()
	if err != nil {
		return nil, err
	}

	source, target := r.youtube, r.spotify
	if reverse {
		source, target = r.spotify, r.youtube
	}

	return tasks.NewEngine(source, target, store, r.config, r.logger), nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, scanCommand, dedupeCommand, duplicatesCommand,
		syncCommand, sortCommand, restoreCommand, searchCommand, artistsCommand, exportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", ui.Title(title))
	r.writePlain("═══════════════════════════════════════\n")
}
