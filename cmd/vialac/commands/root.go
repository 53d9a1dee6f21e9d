package commands

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vialac/vialac/internal/bridge"
	"github.com/vialac/vialac/internal/config"
	"github.com/vialac/vialac/internal/database"
	"github.com/vialac/vialac/internal/database/repository"
	"github.com/vialac/vialac/internal/host"
	"github.com/vialac/vialac/internal/logging"
	"github.com/vialac/vialac/internal/service"
	"github.com/vialac/vialac/internal/tui"
)

var (
	cfgPath string
	hostURL string
	section string
	cfg     config.Config
)

func Execute() error {
	root := &cobra.Command{
		Use:          "vialac",
		Short:        "Herd management terminal for dairy farms",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath != "" {
				if err := os.Setenv("VIALAC_CONFIG", cfgPath); err != nil {
					return err
				}
			}
			c, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if hostURL != "" {
				c.Bridge.HostURL = hostURL
			}
			cfg = c
			return nil
		},
		RunE: runTUI,
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/vialac/config.toml)")
	root.PersistentFlags().StringVar(&hostURL, "host", "", "remote host base URL (e.g. http://127.0.0.1:8765); empty runs in-process")
	root.Flags().StringVar(&section, "section", "", "section to open first")

	root.AddCommand(serveCmd(), importCmd(), seedCmd(), commandCmd(), sheetCmd(), configCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root.ExecuteContext(ctx)
}

func runTUI(cmd *cobra.Command, args []string) error {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	b, closeFn, err := newBridge(log)
	if err != nil {
		return err
	}
	defer closeFn()

	start := cfg.UI.StartSection
	if section != "" {
		start = section
	}
	app, err := tui.New(cmd.Context(), b, log, start)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// openHost migrates and opens the database and wires the in-process host.
func openHost(log *zap.Logger) (*host.Host, *sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	h := host.New(host.Services{
		Herd:    &service.HerdService{Herd: repository.NewHerdRepo(db)},
		Records: &service.RecordService{DB: db},
		Trend:   &service.TrendService{Path: trendPath()},
	}, log.Named("host"))
	return h, db, nil
}

// newBridge returns a bridge to the remote host when one is configured,
// otherwise to an in-process host.
func newBridge(log *zap.Logger) (*bridge.Bridge, func(), error) {
	opts := []bridge.Option{bridge.WithLogger(log.Named("bridge")), bridge.WithTimeout(cfg.Bridge.Timeout)}
	if cfg.Bridge.HostURL != "" {
		return bridge.New(host.NewClient(cfg.Bridge.HostURL, &http.Client{}), opts...), func() {}, nil
	}
	h, db, err := openHost(log)
	if err != nil {
		return nil, nil, err
	}
	return bridge.New(h, opts...), func() { _ = db.Close() }, nil
}

func trendPath() string {
	if filepath.IsAbs(cfg.Data.TrendCSV) {
		return cfg.Data.TrendCSV
	}
	return filepath.Join(cfg.Data.Dir, cfg.Data.TrendCSV)
}
