package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"ariga.io/atlas/sql/migrate"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/quarry/dialect/sql/schema"
)

// SyncOptions holds the flags of the sync command.
type SyncOptions struct {
	DryRun bool
	Watch  bool
	Dir    string // write a migration file instead of applying the changes
	NoDrop bool
	Strict bool
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the database with the schema file",
		Long: `Create the declared tables that do not exist, add the declared
columns the live tables miss, and drop the live columns no longer declared
(unless --no-drop is set or the dialect cannot drop columns).

With --dir, the statements are written to a new migration file in the
directory instead of being executed. With --watch, the synchronization
runs again every time the schema file changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runSync(rootOpts, opts, cmd); err != nil || !opts.Watch {
				return err
			}
			logger := newLogger(rootOpts, cmd.ErrOrStderr())
			w, err := newWatcher(rootOpts.Config)
			if err != nil {
				return err
			}
			defer w.Close()
			logger.Info("watching schema file", "path", rootOpts.Config)
			return watch(cmd.Context(), w, rootOpts.Config, logger, func() error {
				return runSync(rootOpts, opts, cmd)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the statements without executing them")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "synchronize again when the schema file changes")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "write the statements to a migration file in this directory")
	cmd.Flags().BoolVar(&opts.NoDrop, "no-drop", false, "never drop columns")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on validation warnings")

	return cmd
}

func runSync(rootOpts *RootOptions, opts *SyncOptions, cmd *cobra.Command) error {
	s, err := open(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	var mopts []schema.MigrateOption
	if opts.NoDrop {
		mopts = append(mopts, schema.WithDropColumn(false))
	}
	if opts.Strict {
		mopts = append(mopts, schema.WithStrictValidation())
	}
	if opts.Dir != "" && !opts.DryRun {
		dir, err := migrate.NewLocalDir(opts.Dir)
		if err != nil {
			return fmt.Errorf("open migration directory: %w", err)
		}
		mopts = append(mopts, schema.WithDir(dir))
	}
	m, err := s.migrate(mopts...)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if opts.DryRun {
		changes, err := m.Plan(ctx, s.tables...)
		if err != nil {
			return err
		}
		printPlan(cmd.OutOrStdout(), changes)
		return nil
	}
	if err := m.Create(ctx, s.tables...); err != nil {
		return err
	}
	s.logger.Info("schema synchronized", "tables", len(s.tables))
	return nil
}

// newWatcher watches the directory of the schema file. Editors often
// replace the file on save, which drops a watch on the file itself.
func newWatcher(path string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return w, nil
}

// watch calls fn on every write or creation of the file at path, until
// the context is done or the watcher is closed. Errors of fn are logged
// and do not stop the watch.
func watch(ctx context.Context, w *fsnotify.Watcher, path string, logger *slog.Logger, fn func() error) error {
	path = filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			logger.Debug("schema file changed", "op", ev.Op.String())
			if err := fn(); err != nil {
				logger.Error("synchronization failed", "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
