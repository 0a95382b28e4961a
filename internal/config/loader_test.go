package config_test

import (
	"os"
	"runtime"
	"testing"

	"github.com/mkarimi/duelrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"DUELRANK_CONFIG",
	"DUELRANK_ADDR",
	"DUELRANK_LOG_LEVEL",
	"DUELRANK_DEFAULT_RATING",
	"DUELRANK_K_FACTOR",
	"DUELRANK_HISTORY_LIMIT",
	"DUELRANK_SMART_POOL_SIZE",
	"DUELRANK_QUEUE_SIZE",
	"DUELRANK_WORKER_COUNT",
	"DUELRANK_DEDUPE_SIZE",
	"DUELRANK_MAX_RANKING_LIMIT",
	"DUELRANK_DATA_FILE",
}

func clearConfigEnvVars() {
	for _, key := range configEnvVars {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "duelrank-*.yaml")
	if err != nil {
		t.Fatalf("create temp config: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	_ = f.Close()
	return f.Name()
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.DefaultRating, convey.ShouldEqual, 1000.0)
				convey.So(cfg.KFactor, convey.ShouldEqual, 32.0)
				convey.So(cfg.HistoryLimit, convey.ShouldEqual, 5000)
				convey.So(cfg.SmartPoolSize, convey.ShouldEqual, 6)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
				convey.So(cfg.MaxRankingLimit, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DUELRANK_ADDR", ":8080")
			_ = os.Setenv("DUELRANK_K_FACTOR", "16")
			_ = os.Setenv("DUELRANK_DEFAULT_RATING", "1500")
			_ = os.Setenv("DUELRANK_SMART_POOL_SIZE", "10")
			_ = os.Setenv("DUELRANK_DATA_FILE", "/tmp/session.json")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.KFactor, convey.ShouldEqual, 16.0)
				convey.So(cfg.DefaultRating, convey.ShouldEqual, 1500.0)
				convey.So(cfg.SmartPoolSize, convey.ShouldEqual, 10)
				convey.So(cfg.DataFile, convey.ShouldEqual, "/tmp/session.json")
				convey.So(cfg.HistoryLimit, convey.ShouldEqual, 5000)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
k_factor: 24
history_limit: 2000
queue_size: 500
worker_count: 3
`
			tmpFile := createTempConfigFile(t, yamlContent)
			_ = os.Setenv("DUELRANK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.KFactor, convey.ShouldEqual, 24.0)
				convey.So(cfg.HistoryLimit, convey.ShouldEqual, 2000)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When env vars override the YAML file", func() {
			tmpFile := createTempConfigFile(t, "addr: \":9090\"\nk_factor: 24\n")
			_ = os.Setenv("DUELRANK_CONFIG", tmpFile)
			_ = os.Setenv("DUELRANK_K_FACTOR", "48")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then env takes precedence", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.KFactor, convey.ShouldEqual, 48.0)
			})
		})

		convey.Convey("When the config is invalid", func() {
			_ = os.Setenv("DUELRANK_K_FACTOR", "-1")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should reject with ErrInvalidConfig", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldWrap, config.ErrInvalidConfig)
			})
		})

		convey.Convey("When the config file is missing", func() {
			_ = os.Setenv("DUELRANK_CONFIG", "/nonexistent/duelrank.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then it should reject with ErrLoadConfig", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err, convey.ShouldWrap, config.ErrLoadConfig)
			})
		})
	})
}
