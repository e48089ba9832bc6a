package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/rebeliceyang/lazyfilter/internal/app"
	"github.com/rebeliceyang/lazyfilter/internal/config"
	"github.com/rebeliceyang/lazyfilter/internal/db/connection"
	"github.com/rebeliceyang/lazyfilter/internal/db/metadata"
	"github.com/rebeliceyang/lazyfilter/internal/export"
	"github.com/rebeliceyang/lazyfilter/internal/filter"
	"github.com/rebeliceyang/lazyfilter/internal/format"
	"github.com/rebeliceyang/lazyfilter/internal/history"
	"github.com/rebeliceyang/lazyfilter/internal/logging"
	"github.com/rebeliceyang/lazyfilter/internal/models"
	"github.com/rebeliceyang/lazyfilter/internal/resolver"
	"github.com/rebeliceyang/lazyfilter/internal/ui/components"
	"github.com/rebeliceyang/lazyfilter/internal/ui/controls"
	"github.com/rebeliceyang/lazyfilter/internal/ui/theme"
)

const startupTimeout = 15 * time.Second

type options struct {
	out              string
	format           string
	load             string
	rememberPassword bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("lazyfilter", pflag.ContinueOnError)
	config.RegisterFlags(flags)
	var opts options
	flags.StringVarP(&opts.out, "out", "o", "", "write the filters to this file on exit (- for stdout)")
	flags.StringVar(&opts.format, "format", "", "output format for --out: json, csv or yaml")
	flags.StringVarP(&opts.load, "load", "l", "", "start with the filters from this JSON file")
	flags.BoolVar(&opts.rememberPassword, "remember-password", false, "store the configured password in the system keyring")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	loader := config.NewLoader(afero.NewOsFs())
	if err := loader.BindFlags(flags); err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logger, err := logging.Initialize(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logging.Shutdown() }()
	logger.Info("starting", "config", loader.ConfigFile())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, startupTimeout)
	source, sqlResolver, closeSource, err := openSource(startCtx, cfg, opts, logger)
	startCancel()
	if err != nil {
		return err
	}
	defer closeSource()

	index := metadata.NewIndex(source, cfg.Performance.MetadataCacheTTLDuration(), logger)

	hierarchical := append([]string(nil), cfg.Filters.HierarchicalTypes...)
	typesCtx, typesCancel := context.WithTimeout(ctx, cfg.Performance.QueryTimeoutDuration())
	if types, err := source.RecordTypes(typesCtx); err != nil {
		logger.Warn("failed to list record types", "error", err)
	} else {
		hierarchical = append(hierarchical, metadata.HierarchicalTypes(types)...)
	}
	typesCancel()

	catalog, err := filter.NewCatalog(filter.Env{
		HierarchicalTypes: hierarchical,
		CustomConditions:  cfg.Filters.CustomConditions,
	})
	if err != nil {
		return err
	}

	static := resolver.NewStatic(cfg.Filters.Endpoints)
	chain := resolver.Chain{static}
	if sqlResolver != nil {
		chain = append(chain, sqlResolver)
	}

	th := theme.GetTheme(cfg.UI.Theme)
	set := filter.NewSet(ctx, filter.Deps{
		Catalog:        catalog,
		Index:          index,
		Controls:       controls.NewFactory(th),
		Resolver:       chain,
		Logger:         logger,
		ResolveTimeout: cfg.Performance.QueryTimeoutDuration(),
	})
	defer func() {
		cancel()
		set.Wait()
	}()

	builder := filter.NewBuilder(index)
	if cfg.Filters.NestedSetKey != "" {
		builder.NestedSetKey = cfg.Filters.NestedSetKey
	}

	var store *history.Store
	if cfg.Filters.HistoryFile != "" {
		store, err = history.NewStore(cfg.Filters.HistoryFile)
		if err != nil {
			logger.Warn("record type history disabled", "error", err)
			store = nil
		} else {
			defer func() { _ = store.Close() }()
		}
	}

	if opts.load != "" {
		conds, err := export.LoadFile(opts.load)
		if err != nil {
			return err
		}
		if err := addFilters(ctx, conds, index, set, logger); err != nil {
			return err
		}
	}

	deps := app.Deps{
		Config:    cfg,
		Source:    source,
		Fields:    index,
		Set:       set,
		Builder:   builder,
		Formatter: format.New(),
		Logger:    logger,
	}
	if store != nil {
		deps.History = store
	}
	application := app.New(deps)

	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.UI.MouseEnabled {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(application, programOpts...)

	// Changes also fire from inside Update, so never block the event loop
	set.OnChange(func() { go p.Send(components.FilterChangedMsg{}) })
	loader.Watch(func(newCfg *config.Config, err error) {
		if err != nil {
			p.Send(app.ConfigReloadedMsg{Err: err})
			return
		}
		registered := reloadConditions(catalog, static, sqlResolver != nil, newCfg, logger)
		p.Send(app.ConfigReloadedMsg{Registered: registered})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	if opts.out != "" {
		conds := application.Applied()
		if len(conds) == 0 {
			conds = set.Values()
		}
		return writeFilters(opts, conds)
	}
	return nil
}

// reloadConditions swaps the static endpoint table and registers custom
// conditions that are new in cfg. Without a SQL resolver, conditions whose
// endpoint is not in the table are skipped.
func reloadConditions(catalog *filter.Catalog, static *resolver.Static, hasSQL bool, cfg *config.Config, logger *slog.Logger) int {
	static.Replace(cfg.Filters.Endpoints)

	registered := 0
	for _, cc := range cfg.Filters.CustomConditions {
		if catalog.Known(cc.Key) {
			continue
		}
		if !hasSQL && !static.Has(cc.Endpoint) {
			logger.Warn("skipping custom condition with unknown endpoint", "key", cc.Key, "endpoint", cc.Endpoint)
			continue
		}
		if err := catalog.Register(cc); err != nil {
			logger.Warn("failed to register custom condition", "key", cc.Key, "error", err)
			continue
		}
		registered++
	}
	return registered
}

// openSource picks the metadata source from the database config. The SQL
// resolver is only available on PostgreSQL.
func openSource(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) (metadata.Source, resolver.Resolver, func(), error) {
	db := cfg.Database
	switch {
	case db.SQLitePath != "":
		src, err := metadata.NewSQLiteSource(db.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("using sqlite metadata", "path", db.SQLitePath)
		return src, nil, func() { _ = src.Close() }, nil
	case db.SchemaFile != "":
		src, err := metadata.LoadYAMLSource(db.SchemaFile)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("using yaml metadata", "path", db.SchemaFile)
		return src, nil, func() {}, nil
	}

	conn := db.ConnectionConfig
	passfile := db.Passfile
	if passfile == "" {
		passfile = connection.DefaultPassfilePath()
	}
	password, from, err := connection.ResolvePassword(conn, passfile)
	if err != nil {
		return nil, nil, nil, err
	}
	conn.Password = password
	logger.Debug("resolved password", "source", from.String())

	if opts.rememberPassword && from == connection.PasswordConfig {
		if err := connection.StorePassword(conn, password); err != nil {
			logger.Warn("failed to store password in keyring", "error", err)
		}
	}

	pool, err := connection.NewPool(ctx, conn)
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Info("connected", "host", conn.Host, "database", conn.Database, "schema", db.Schema)
	return metadata.NewPostgresSource(pool, db.Schema), resolver.NewSQL(pool), pool.Close, nil
}

func addFilters(ctx context.Context, conds []models.FilterCondition, index *metadata.Index, set *filter.Set, logger *slog.Logger) error {
	for _, c := range conds {
		if _, err := index.Load(ctx, c.RecordType); err != nil {
			return fmt.Errorf("failed to load fields of %s: %w", c.RecordType, err)
		}
		row, _, err := set.Add(c.RecordType, c.Field, c.Operator, c.Value)
		if err != nil {
			logger.Warn("skipping filter", "field", c.Field, "error", err)
			continue
		}
		if c.Hidden {
			row.SetHidden(true)
		}
	}
	return nil
}

func writeFilters(opts options, conds []models.FilterCondition) error {
	if opts.out == "-" {
		f, err := export.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		return export.Write(os.Stdout, conds, f)
	}
	if opts.format != "" {
		f, err := export.ParseFormat(opts.format)
		if err != nil {
			return err
		}
		file, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer func() { _ = file.Close() }()
		return export.Write(file, conds, f)
	}
	return export.ExportToFile(conds, opts.out)
}
