package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dreamerjackson/statscraper/collect"
	"github.com/dreamerjackson/statscraper/csvstorage"
	"github.com/dreamerjackson/statscraper/generator"
	"github.com/dreamerjackson/statscraper/log"
	"github.com/dreamerjackson/statscraper/proxy"
	"github.com/dreamerjackson/statscraper/spider"
	"github.com/dreamerjackson/statscraper/sqlstorage"
	_ "github.com/dreamerjackson/statscraper/tasklib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var RunCmd = &cobra.Command{
	Use:   "run [task...]",
	Short: "run scraping tasks.",
	Long:  "run the tasks listed in the config file, or only the named ones.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return Run(ctx, configPath, args)
	},
}

func init() {
	RunCmd.Flags().StringVar(
		&configPath, "config", "config.toml", "set config file")
}

func Run(ctx context.Context, path string, names []string) error {
	s, err := LoadSettings(path)
	if err != nil {
		return fmt.Errorf("load config %s failed: %w", path, err)
	}

	// log
	logger, closer, err := log.Setup(s.LogLevel, s.LogOutput, s.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()
	defer logger.Sync()

	if s.Node < 0 {
		ip := generator.HostIP()
		s.Node = generator.NodeByIP(ip)
		logger.Debug("snowflake node from host", zap.String("ip", ip), zap.Int64("node", s.Node))
	}

	runID, err := generator.RunID(s.Node)
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", runID))

	// set zap global logger
	zap.ReplaceGlobals(logger)

	cfgs, err := selectTasks(s.Tasks, names)
	if err != nil {
		return err
	}

	// fetcher
	var p proxy.Func
	if len(s.Proxy) > 0 {
		if p, err = proxy.RoundRobinProxySwitcher(s.Proxy...); err != nil {
			return err
		}
		logger.Sugar().Info("proxy list: ", s.Proxy)
	}

	fetchers := spider.Fetchers{
		Static: collect.BrowserFetch{
			Timeout:   s.Timeout,
			UserAgent: s.UserAgent,
			Proxy:     p,
			Logger:    logger.Named("fetch"),
		},
	}

	if spider.NeedsRender(cfgs) {
		rf, err := collect.NewRenderFetch(
			collect.WithDriverPath(s.DriverPath),
			collect.WithInstallDriver(s.InstallDriver),
			collect.WithHeadless(s.Headless),
			collect.WithRenderTimeout(s.RenderTimeout),
			collect.WithRenderUserAgent(s.UserAgent),
			collect.WithRenderLogger(logger.Named("render")),
		)
		if err != nil {
			logger.Error("start browser failed", zap.Error(err))
			return err
		}
		defer func() {
			if err := rf.Close(); err != nil {
				logger.Warn("close browser failed", zap.Error(err))
			}
		}()
		fetchers.Render = rf
	}

	// storage
	storage, err := newStorage(s, runID, logger)
	if err != nil {
		return err
	}

	tasks, err := spider.ParseTaskConfig(logger, fetchers, storage, cfgs)
	if err != nil {
		return err
	}

	var failed []string
	for _, t := range tasks {
		logger.Info("task start", zap.String("task", t.Name), zap.String("url", t.URL))
		if err := t.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("task failed", zap.String("task", t.Name), zap.Error(err))
			failed = append(failed, t.Name)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d tasks failed: %v", len(failed), len(tasks), failed)
	}

	return nil
}

func newStorage(s *Settings, runID string, logger *zap.Logger) (spider.DataRepository, error) {
	switch s.StorageType {
	case "csv", "":
		logger.Info("start csv storage", zap.String("dir", s.OutputDir))
		return csvstorage.New(
			csvstorage.WithDir(s.OutputDir),
			csvstorage.WithLogger(logger.Named("csv")),
		), nil
	case "mysql":
		storage, err := sqlstorage.New(
			sqlstorage.WithSQLURL(s.SQLURL),
			sqlstorage.WithLogger(logger.Named("sqlDB")),
			sqlstorage.WithBatchCount(s.BatchCount),
			sqlstorage.WithRunID(runID),
			sqlstorage.WithReplace(s.Replace),
		)
		if err != nil {
			logger.Error("create sqlstorage failed", zap.Error(err))
			return nil, err
		}
		logger.Info("start mysql storage")
		return storage, nil
	case "empty":
		logger.Info("start empty storage")
		return &spider.EmptyDataRepository{Logger: logger}, nil
	}

	return nil, fmt.Errorf("unknown storage type %q", s.StorageType)
}

// selectTasks keeps the configured tasks named on the command line. A name
// that is not configured but matches a preset runs the preset as is.
func selectTasks(cfgs []spider.TaskConfig, names []string) ([]spider.TaskConfig, error) {
	if len(names) == 0 {
		if len(cfgs) == 0 {
			return nil, errors.New("no task configured")
		}
		return cfgs, nil
	}

	var out []spider.TaskConfig
	for _, name := range names {
		found := false
		for _, cfg := range cfgs {
			if cfg.Name == name {
				out = append(out, cfg)
				found = true
			}
		}

		if found {
			continue
		}

		if _, ok := spider.TaskStore.Get(name); !ok {
			return nil, fmt.Errorf("task %s: not configured and not a preset", name)
		}
		out = append(out, spider.TaskConfig{Name: name})
	}

	return out, nil
}
