// Package logging configures go-zero's logx for the CLI and API server.
package logging

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/seenimoa/agriprice/internal/config"
)

// Setup applies the logging section of the config. It may be called more
// than once; later calls only adjust the level.
func Setup(cfg config.LoggingConfig) error {
	conf := logx.LogConf{
		ServiceName: "agriprice",
		Mode:        mode(cfg.Mode),
		Encoding:    encoding(cfg.Format),
		Path:        cfg.Path,
		Level:       levelName(cfg.Level),
		Stat:        false,
	}
	if err := logx.SetUp(conf); err != nil {
		return fmt.Errorf("logging: setup: %w", err)
	}
	logx.SetLevel(ParseLevel(cfg.Level))
	return nil
}

// ParseLevel maps a config level name to a logx level.
func ParseLevel(level string) uint32 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logx.DebugLevel
	case "info":
		return logx.InfoLevel
	case "error", "warn", "warning":
		return logx.ErrorLevel
	case "severe", "fatal":
		return logx.SevereLevel
	default:
		return logx.InfoLevel
	}
}

func levelName(level string) string {
	switch ParseLevel(level) {
	case logx.DebugLevel:
		return "debug"
	case logx.ErrorLevel:
		return "error"
	case logx.SevereLevel:
		return "severe"
	default:
		return "info"
	}
}

func encoding(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return "json"
	}
	return "plain"
}

func mode(m string) string {
	if strings.EqualFold(strings.TrimSpace(m), "file") {
		return "file"
	}
	return "console"
}

// ConfigSummaryLines returns human readable lines describing the loaded config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	store := cfg.Store.Driver
	switch cfg.Store.Driver {
	case "sqlite":
		store += " (" + cfg.Store.Path + ")"
	case "postgres":
		store += " (" + presence(cfg.Store.DSN != "") + ")"
	}
	catalogFile := "built-in"
	if cfg.Catalog.File != "" {
		catalogFile = cfg.Catalog.File
	}
	feed := "disabled"
	if cfg.Source.FeedURL != "" {
		feed = cfg.Source.FeedURL
	}
	ai := "disabled"
	if cfg.Forecast.AI.Enabled {
		ai = fmt.Sprintf("%s (key %s)", cfg.Forecast.AI.Model, presence(cfg.Forecast.AI.APIKey != ""))
	}

	return []string{
		fmt.Sprintf("Catalog: %s", catalogFile),
		fmt.Sprintf("Store: %s", store),
		fmt.Sprintf("Cache TTL: %s", cfg.Cache.TTL()),
		fmt.Sprintf("Report URL: %s (timeout %s)", cfg.Source.ReportURL, cfg.Source.Timeout()),
		fmt.Sprintf("Report feed: %s", feed),
		fmt.Sprintf("AI forecasts: %s", ai),
		fmt.Sprintf("Workers: %d", cfg.Monitor.Workers),
	}
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
