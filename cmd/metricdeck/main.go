package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/betbot/metricdeck/internal/carousel"
	"github.com/betbot/metricdeck/internal/dashboard"
	"github.com/betbot/metricdeck/internal/deckwatch"
	"github.com/betbot/metricdeck/pkg/config"
	"github.com/betbot/metricdeck/pkg/logger"
	"github.com/betbot/metricdeck/pkg/shutdown"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const shutdownTimeout = 3 * time.Second

type flags struct {
	deck     string
	envFile  string
	watch    bool
	plain    bool
	logLevel string
	logFile  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "metricdeck",
		Short: "Rotating automation metrics in the terminal",
		Long: `metricdeck shows automation metrics one at a time and rotates them on a timer.
Hovering or focusing the card pauses rotation; arrows, dots and the play/pause
control work with mouse and keyboard.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), f, cmd.OutOrStdout())
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&f.deck, "deck", "d", "", "metrics file (.yaml/.yml/.json); built-in sample when empty")
	fs.StringVar(&f.envFile, "env-file", "", "env file with METRICDECK_* overrides (default ./.env if present)")
	fs.BoolVarP(&f.watch, "watch", "w", false, "reload the deck when the file changes")
	fs.BoolVar(&f.plain, "plain", false, "print one line per change instead of the full-screen UI")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFile, "log-file", "", "log file path")
	return cmd
}

func run(parent context.Context, f *flags, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := config.LoadEnvFile(f.envFile); err != nil {
		return err
	}
	cfg, err := config.LoadFromFile(f.deck)
	if err != nil {
		return err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if f.logFile != "" {
		cfg.LogFile = f.logFile
	}

	plain := f.plain || !term.IsTerminal(int(os.Stdout.Fd()))

	// 全屏界面占用终端，日志只写文件
	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    20,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
		Console:    plain,
	}); err != nil {
		return errors.Wrap(err, "init logger")
	}
	mgr := shutdown.NewManager()
	mgr.OnShutdown("logger", func(context.Context) { logger.Close() })
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		mgr.Shutdown(sctx)
	}()
	logger.Infof("metricdeck starting: source=%q metrics=%d interval=%s plain=%v",
		cfg.Source, len(cfg.Metrics), cfg.Carousel.Interval, plain)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if plain {
		return runPlain(ctx, cfg, f, mgr, out)
	}
	return runTUI(ctx, cfg, f, mgr)
}

func runTUI(ctx context.Context, cfg *config.Config, f *flags, mgr *shutdown.Manager) error {
	model := dashboard.New(cfg.Title, cfg.Metrics, cfg.Carousel)
	p := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)
	mgr.OnShutdown("dashboard", func(context.Context) { model.Close() })

	if f.watch && f.deck != "" {
		w, err := deckwatch.New(f.deck, func(next *config.Config) {
			p.Send(dashboard.ReloadMsg{Title: next.Title, Metrics: next.Metrics, Options: next.Carousel})
		})
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		mgr.OnShutdown("deckwatch", func(context.Context) { w.Stop() })
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run dashboard")
	}
	return nil
}

// runPlain 非终端输出（管道、日志采集）：每次状态变化打印一行
func runPlain(ctx context.Context, cfg *config.Config, f *flags, mgr *shutdown.Manager, out io.Writer) error {
	reloads := make(chan *config.Config, 1)
	if f.watch && f.deck != "" {
		w, err := deckwatch.New(f.deck, func(next *config.Config) {
			// 只保留最新的一次
			select {
			case <-reloads:
			default:
			}
			reloads <- next
		})
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			return err
		}
		mgr.OnShutdown("deckwatch", func(context.Context) { w.Stop() })
	}

	for {
		runCtx, cancel := context.WithCancel(ctx)
		c := carousel.New(cfg.Metrics, cfg.Carousel)
		errCh := make(chan error, 1)
		go func() {
			errCh <- c.Run(runCtx, func(st carousel.State) {
				fmt.Fprintln(out, plainLine(cfg.Title, st))
			})
		}()

		select {
		case <-ctx.Done():
			cancel()
			<-errCh
			return nil
		case next := <-reloads:
			cancel()
			<-errCh
			cfg = next
		}
	}
}

func plainLine(title string, st carousel.State) string {
	metric, ok := st.Active()
	if !ok {
		return fmt.Sprintf("%s: No automation metrics to display", title)
	}
	line := fmt.Sprintf("%s [%d/%d] %s: %s", title, st.ActiveIndex+1, len(st.Items), metric.Label, metric.DisplayValue())
	if arrow := metric.Trend.Arrow(); arrow != "" {
		line += " " + arrow
	}
	return line
}
