package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
	"thread-stress/pkg/cpustat"
	"thread-stress/pkg/stress"
)

const (
	envLoadMode         = "STRESS_LOAD_MODE"
	envParallelShutdown = "STRESS_PARALLEL_SHUTDOWN"
	envHTTPBind         = "STRESS_HTTP_ADDR"
	envLogLevel         = "STRESS_LOG_LEVEL"
	envLogFile          = "STRESS_LOG_FILE"
	envSampleInterval   = "STRESS_SAMPLE_INTERVAL"

	defaultLogMaxSizeMB  = 100
	defaultLogMaxBackups = 3
)

type runtimeConfig struct {
	Load    loadSection
	Pool    poolConfig
	HTTP    httpConfig
	Log     logConfig
	Sampler samplerConfig
}

type loadSection struct {
	Mode stress.LoadMode
}

type poolConfig struct {
	ParallelShutdown bool
}

type httpConfig struct {
	Bind string
}

type logConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

type samplerConfig struct {
	Enabled  bool
	Interval time.Duration
	Path     string
}

type fileConfig struct {
	Load    loadFileConfig    `yaml:"load"`
	Pool    poolFileConfig    `yaml:"pool"`
	HTTP    httpFileConfig    `yaml:"http"`
	Log     logFileConfig     `yaml:"log"`
	Sampler samplerFileConfig `yaml:"sampler"`
}

type loadFileConfig struct {
	Mode *string `yaml:"mode"`
}

type poolFileConfig struct {
	ParallelShutdown *bool `yaml:"parallelShutdown"`
}

type httpFileConfig struct {
	Bind *string `yaml:"bind"`
}

type logFileConfig struct {
	Level      *string `yaml:"level"`
	File       *string `yaml:"file"`
	MaxSizeMB  *int    `yaml:"maxSizeMB"`
	MaxBackups *int    `yaml:"maxBackups"`
}

type samplerFileConfig struct {
	Enabled  *bool          `yaml:"enabled"`
	Interval *time.Duration `yaml:"interval"`
	Path     *string        `yaml:"path"`
}

func defaultRuntimeConfig() runtimeConfig {
	var cfg runtimeConfig

	cfg.Load.Mode = stress.LoadContinuous
	cfg.Log.Level = defaultLogLevel
	cfg.Log.MaxSizeMB = defaultLogMaxSizeMB
	cfg.Log.MaxBackups = defaultLogMaxBackups
	cfg.Sampler.Enabled = true
	cfg.Sampler.Interval = cpustat.DefaultInterval
	cfg.Sampler.Path = cpustat.DefaultPath

	return cfg
}

func loadConfig(path string) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()

	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		applyEnvOverrides(&cfg)

		return cfg, nil
	}

	data, err := os.ReadFile(trimmed)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return runtimeConfig{}, fmt.Errorf("read config file %q: %w", trimmed, err)
		}
	} else {
		var fileCfg fileConfig

		err := yaml.Unmarshal(data, &fileCfg)
		if err != nil {
			return runtimeConfig{}, fmt.Errorf("decode config file %q: %w", trimmed, err)
		}

		err = mergeLoadConfig(&cfg.Load, fileCfg.Load)
		if err != nil {
			return runtimeConfig{}, fmt.Errorf("config file %q: %w", trimmed, err)
		}

		assignBool(&cfg.Pool.ParallelShutdown, fileCfg.Pool.ParallelShutdown)
		assignString(&cfg.HTTP.Bind, fileCfg.HTTP.Bind)
		mergeLogConfig(&cfg.Log, fileCfg.Log)
		mergeSamplerConfig(&cfg.Sampler, fileCfg.Sampler)
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

func mergeLoadConfig(dst *loadSection, src loadFileConfig) error {
	if src.Mode == nil {
		return nil
	}

	mode, err := stress.ParseLoadMode(*src.Mode)
	if err != nil {
		return fmt.Errorf("load.mode: %w", err)
	}

	dst.Mode = mode

	return nil
}

func mergeLogConfig(dst *logConfig, src logFileConfig) {
	assignString(&dst.Level, src.Level)
	assignString(&dst.File, src.File)
	assignInt(&dst.MaxSizeMB, src.MaxSizeMB)
	assignInt(&dst.MaxBackups, src.MaxBackups)
}

func mergeSamplerConfig(dst *samplerConfig, src samplerFileConfig) {
	assignBool(&dst.Enabled, src.Enabled)
	assignDuration(&dst.Interval, src.Interval)
	assignString(&dst.Path, src.Path)
}

func applyEnvOverrides(cfg *runtimeConfig) {
	if value, ok := lookupEnv(envLoadMode); ok {
		mode, err := stress.ParseLoadMode(value)
		if err == nil {
			cfg.Load.Mode = mode
		}
	}

	cfg.Pool.ParallelShutdown = envBool(envParallelShutdown, cfg.Pool.ParallelShutdown)
	cfg.HTTP.Bind = envString(envHTTPBind, cfg.HTTP.Bind)
	cfg.Log.Level = envString(envLogLevel, cfg.Log.Level)
	cfg.Log.File = envString(envLogFile, cfg.Log.File)
	cfg.Sampler.Interval = envDuration(envSampleInterval, cfg.Sampler.Interval)

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}

	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = defaultLogMaxSizeMB
	}

	if cfg.Log.MaxBackups < 0 {
		cfg.Log.MaxBackups = 0
	}

	if cfg.Sampler.Interval <= 0 {
		cfg.Sampler.Interval = cpustat.DefaultInterval
	}

	if cfg.Sampler.Path == "" {
		cfg.Sampler.Path = cpustat.DefaultPath
	}
}

var lookupEnv = os.LookupEnv //nolint:gochecknoglobals // overridden in tests

func assignBool(target *bool, value *bool) {
	if value != nil {
		*target = *value
	}
}

func assignDuration(target *time.Duration, value *time.Duration) {
	if value != nil {
		*target = *value
	}
}

func assignInt(target *int, value *int) {
	if value != nil {
		*target = *value
	}
}

func assignString(target *string, value *string) {
	if value != nil {
		*target = strings.TrimSpace(*value)
	}
}

func envBool(key string, fallback bool) bool {
	value, ok := lookupEnv(key)
	if !ok {
		return fallback
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}

	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value, ok := lookupEnv(key)
	if !ok {
		return fallback
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}

	duration, err := time.ParseDuration(trimmed)
	if err != nil {
		return fallback
	}

	return duration
}

func envString(key, fallback string) string {
	value, ok := lookupEnv(key)
	if !ok {
		return fallback
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}

	return trimmed
}
