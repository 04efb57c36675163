package run

import (
	"time"

	"github.com/dreamerjackson/statscraper/spider"
	"github.com/go-micro/plugins/v4/config/encoder/toml"
	"go-micro.dev/v4/config"
	"go-micro.dev/v4/config/reader"
	"go-micro.dev/v4/config/reader/json"
	"go-micro.dev/v4/config/source"
	"go-micro.dev/v4/config/source/file"
)

// Settings is everything read from the config file.
type Settings struct {
	LogLevel  string
	LogOutput string
	LogFile   string

	Timeout       time.Duration
	RenderTimeout time.Duration
	UserAgent     string
	Proxy         []string
	DriverPath    string
	InstallDriver bool
	Headless      bool

	StorageType string
	SQLURL      string
	BatchCount  int
	Replace     bool
	OutputDir   string

	Node  int64 // snowflake node, -1 derives it from the host address
	Tasks []spider.TaskConfig
}

func LoadSettings(path string) (*Settings, error) {
	enc := toml.NewEncoder()
	cfg, err := config.NewConfig(config.WithReader(json.NewReader(reader.WithEncoder(enc))))
	if err != nil {
		return nil, err
	}

	err = cfg.Load(file.NewSource(
		file.WithPath(path),
		source.WithEncoder(enc),
	))
	if err != nil {
		return nil, err
	}

	s := &Settings{
		LogLevel:      cfg.Get("logLevel").String("INFO"),
		LogOutput:     cfg.Get("logOutput").String("stderr"),
		LogFile:       cfg.Get("logFile").String(""),
		Timeout:       time.Duration(cfg.Get("fetcher", "timeout").Int(5000)) * time.Millisecond,
		RenderTimeout: time.Duration(cfg.Get("fetcher", "renderTimeout").Int(30000)) * time.Millisecond,
		UserAgent:     cfg.Get("fetcher", "userAgent").String(""),
		Proxy:         cfg.Get("fetcher", "proxy").StringSlice([]string{}),
		DriverPath:    cfg.Get("fetcher", "driverPath").String(""),
		InstallDriver: cfg.Get("fetcher", "installDriver").Bool(false),
		Headless:      cfg.Get("fetcher", "headless").Bool(true),
		StorageType:   cfg.Get("storage", "type").String("csv"),
		SQLURL:        cfg.Get("storage", "sqlURL").String(""),
		BatchCount:    cfg.Get("storage", "batchCount").Int(100),
		Replace:       cfg.Get("storage", "replace").Bool(false),
		OutputDir:     cfg.Get("output", "dir").String("output"),
		Node:          int64(cfg.Get("node").Int(-1)),
	}

	if err := cfg.Get("Tasks").Scan(&s.Tasks); err != nil {
		return nil, err
	}

	return s, nil
}
