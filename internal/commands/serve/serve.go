package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/thomas-vilte/issuebot/internal/cli/registry"
	"github.com/thomas-vilte/issuebot/internal/commands"
	domainErrors "github.com/thomas-vilte/issuebot/internal/errors"
	"github.com/thomas-vilte/issuebot/internal/i18n"
	"github.com/thomas-vilte/issuebot/internal/logger"
	"github.com/thomas-vilte/issuebot/internal/trigger"
	"github.com/thomas-vilte/issuebot/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// ServeCommand runs the scheduler and the HTTP trigger server until the
// process is interrupted.
type ServeCommand struct {
	onListen        func(net.Addr)
	shutdownTimeout time.Duration
}

type Option func(*ServeCommand)

// WithListenHook is called with the bound address once the server listens.
func WithListenHook(fn func(net.Addr)) Option {
	return func(c *ServeCommand) {
		c.onListen = fn
	}
}

// WithShutdownTimeout bounds how long in-flight requests may run after a
// shutdown signal.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *ServeCommand) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

func NewServeCommand(opts ...Option) *ServeCommand {
	c := &ServeCommand{shutdownTimeout: shutdownTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ServeCommand) CreateCommand(t *i18n.Translations, load registry.ContainerLoader) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: t.GetMessage("serve_usage", 0, nil),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: t.GetMessage("serve_addr_usage", 0, nil),
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: t.GetMessage("serve_interval_usage", 0, nil),
			},
			&cli.BoolFlag{
				Name:  "no-initial-cycle",
				Usage: t.GetMessage("serve_no_initial_cycle_usage", 0, nil),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.IsSet(commands.FlagLogFormat) {
				ctx = commands.SetupLogger(ctx, cmd, logger.FormatJSON)
			}

			container, err := load(ctx, cmd)
			if err != nil {
				return err
			}
			cfg := container.Config()

			addr := cfg.Server.Addr
			if cmd.IsSet("addr") {
				addr = cmd.String("addr")
			}
			interval := cfg.Monitor.Interval.Std()
			if cmd.IsSet("interval") {
				interval = cmd.Duration("interval")
			}

			m, err := container.Monitor()
			if err != nil {
				return domainErrors.NewAppError(domainErrors.TypeConfiguration, t.GetMessage("error_build_monitor", 0, nil), err)
			}

			scheduler, err := trigger.NewScheduler(m, interval,
				trigger.WithRunOnStart(cfg.Monitor.RunOnStart && !cmd.Bool("no-initial-cycle")))
			if err != nil {
				return domainErrors.ErrInvalidInterval.WithError(err).WithContext("field", "interval")
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return domainErrors.NewAppError(domainErrors.TypeInternal, t.GetMessage("error_server", 0, nil), err).
					WithContext("field", addr)
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return c.serve(ctx, t, cmd, scheduler, trigger.NewHandler(m, trigger.WithLogger(logger.FromContext(ctx))), ln, interval)
		},
	}
}

func (c *ServeCommand) serve(ctx context.Context, t *i18n.Translations, cmd *cli.Command, scheduler *trigger.Scheduler, handler http.Handler, ln net.Listener, interval time.Duration) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	out := commands.Writer(cmd)
	ui.PrintInfo(out, t.GetMessage("serve_started", 0, map[string]interface{}{
		"Addr":     ln.Addr().String(),
		"Interval": interval.String(),
	}))
	if c.onListen != nil {
		c.onListen(ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: %w", t.GetMessage("error_server", 0, nil), err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if errors.Is(err, context.DeadlineExceeded) {
			// a POST /monitor cycle is still running
			logger.Warn(ctx, "shutdown deadline reached, closing remaining connections",
				"timeout", c.shutdownTimeout.String())
			_ = srv.Close()
			return nil
		}
		return err
	})

	err := g.Wait()
	ui.PrintInfo(out, t.GetMessage("serve_stopped", 0, nil))
	return err
}
