package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Jayphen/todoboard/internal/config"
	"github.com/Jayphen/todoboard/internal/dispatch"
	"github.com/Jayphen/todoboard/internal/logging"
	"github.com/Jayphen/todoboard/internal/notify"
	"github.com/Jayphen/todoboard/internal/projection"
	"github.com/Jayphen/todoboard/internal/redis"
	"github.com/Jayphen/todoboard/internal/store"
	"github.com/Jayphen/todoboard/internal/tasks"
)

// commandTimeout bounds every store round trip of a one-shot command.
const commandTimeout = 30 * time.Second

// app carries what every subcommand needs: the resolved config and the
// store spec override from the root flags.
type app struct {
	storeSpec *string

	// now is replaced in tests
	now func() time.Time
}

func (a *app) config() (*config.Config, error) {
	cfg, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (a *app) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

// spec returns the store spec from --store or the config.
func (a *app) spec(cfg *config.Config) string {
	if a.storeSpec != nil && *a.storeSpec != "" {
		return *a.storeSpec
	}
	return cfg.Store
}

func (a *app) openStore(ctx context.Context, cfg *config.Config) (store.TaskStore, error) {
	spec := a.spec(cfg)
	s, err := store.OpenString(ctx, spec, store.OpenOptions{Token: cfg.APIToken})
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", spec, err)
	}
	return s, nil
}

// notifier prints outcomes to w and, when enabled, to the desktop.
func (a *app) notifier(cfg *config.Config, w io.Writer) notify.Notifier {
	n := []notify.Notifier{notify.NewWriterNotifier(w)}
	if cfg.Notifications.OS {
		n = append(n, notify.OSNotifier{})
	}
	return notify.Multi(n...)
}

func (a *app) dispatcher(cmd *cobra.Command, cfg *config.Config, s store.TaskStore) *dispatch.Dispatcher {
	return dispatch.New(s, a.notifier(cfg, cmd.ErrOrStderr()), logging.WithCommand(cmd.Name()).WithStore(s.Info().Name))
}

func (a *app) env(cfg *config.Config, members []tasks.Member) projection.Env {
	return projection.Env{
		Now:     a.clock(),
		Members: tasks.NewMemberIndex(members),
		Locale:  cfg.Tag(),
	}
}

// redis connects to the configured Redis for saved views.
func (a *app) redis(cfg *config.Config) (*redis.Client, error) {
	c, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("saved views need Redis: %w", err)
	}
	return c, nil
}

// fetch loads tasks and members from s concurrently.
func fetch(ctx context.Context, s store.TaskStore) ([]tasks.Task, []tasks.Member, error) {
	var all []tasks.Task
	var members []tasks.Member

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		all, err = s.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		members, err = store.Members(gctx, s)
		if err != nil {
			// Members only feed the assignee filter and labels.
			logging.WithError(err).Warn("member lookup failed")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return all, members, nil
}

// findTask fetches the collection and returns the task with id.
func findTask(ctx context.Context, s store.TaskStore, id string) (tasks.Task, error) {
	all, err := s.List(ctx)
	if err != nil {
		return tasks.Task{}, fmt.Errorf("failed to list tasks: %w", err)
	}
	t, ok := tasks.Find(all, id)
	if !ok {
		return tasks.Task{}, fmt.Errorf("%w: %s", tasks.ErrTaskNotFound, id)
	}
	return t, nil
}

// storeKey identifies the configured store without its credentials.
func (a *app) storeKey(cfg *config.Config) string {
	spec, err := store.ParseSpec(a.spec(cfg))
	if err != nil {
		return ""
	}
	return spec.String()
}
