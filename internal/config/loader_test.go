package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/tbg-racing/rankingsaver/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("RANKINGSAVER_RESULTS_DIR", "/srv/results")
			_ = os.Setenv("RANKINGSAVER_RESTART_DELAY", "2s")
			_ = os.Setenv("RANKINGSAVER_QUEUE_SIZE", "64")
			_ = os.Setenv("RANKINGSAVER_LOG_FORMAT", "json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ResultsDir, convey.ShouldEqual, "/srv/results")
				convey.So(cfg.RestartDelay, convey.ShouldEqual, 2*time.Second)
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.EndSection, convey.ShouldEqual, "EndMap")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
results_dir: "cup"
restart_delay: 10s
chat_prefix: "[cup] "
end_section: "EndRound"
congrats_messages:
  - "Nice!"
  - "Bravo!"
`)
			_ = os.Setenv("RANKINGSAVER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ResultsDir, convey.ShouldEqual, "cup")
				convey.So(cfg.RestartDelay, convey.ShouldEqual, 10*time.Second)
				convey.So(cfg.ChatPrefix, convey.ShouldEqual, "[cup] ")
				convey.So(cfg.EndSection, convey.ShouldEqual, "EndRound")
				convey.So(cfg.CongratsMessages, convey.ShouldResemble, []string{"Nice!", "Bravo!"})
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 1024) // from defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
results_dir: "cup"
queue_size: 32
`)
			_ = os.Setenv("RANKINGSAVER_CONFIG", tmpFile)
			_ = os.Setenv("RANKINGSAVER_RESULTS_DIR", "league")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ResultsDir, convey.ShouldEqual, "league")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with an explicit file path", func() {
			tmpFile := createTempConfigFile(t, "metrics_textfile: \"rankingsaver.prom\"\n")

			cfg, err := config.LoadFile(ctx, tmpFile)

			convey.Convey("Then it should use that file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsTextfile, convey.ShouldEqual, "rankingsaver.prom")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("RANKINGSAVER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("RANKINGSAVER_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid values", func() {
			cases := map[string]string{
				"RANKINGSAVER_QUEUE_SIZE":    "0",
				"RANKINGSAVER_LOG_FORMAT":    "xml",
				"RANKINGSAVER_RESTART_DELAY": "-1s",
			}
			for key, value := range cases {
				clearConfigEnvVars()
				_ = os.Setenv(key, value)

				cfg, err := config.Load(ctx)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			}
			clearConfigEnvVars()
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("RANKINGSAVER_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"RANKINGSAVER_CONFIG",
		"RANKINGSAVER_LOG_LEVEL",
		"RANKINGSAVER_LOG_FORMAT",
		"RANKINGSAVER_RESULTS_DIR",
		"RANKINGSAVER_RESTART_DELAY",
		"RANKINGSAVER_CHAT_PREFIX",
		"RANKINGSAVER_END_SECTION",
		"RANKINGSAVER_METRICS_TEXTFILE",
		"RANKINGSAVER_QUEUE_SIZE",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
