package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

var (
	envFilePath string
	parseOnce   sync.Once

	exportMu   sync.Mutex
	exportedAt = map[string]struct{}{}
)

// MustNew is New that panics; meant for main().
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New fills T from the environment using envconfig tags. Values from the
// file given by -env (or ./.env when present) are exported first; a file is
// exported at most once per process, so several config sections can be loaded
// without re-reading it.
func New[T any](prefix string) (*T, error) {
	if path := resolveEnvPath(); path != "" {
		if err := exportOnce(path, false); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := exportOnce(defaultEnvFile, true); err != nil {
		return nil, fmt.Errorf("failed to load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("config %q: %w", prefix, err)
	}

	return &conf, nil
}

// FromFile loads T after exporting the given env file, bypassing the -env flag.
func FromFile[T any](path string, prefix string) (*T, error) {
	if err := exportOnce(path, false); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("config %q: %w", prefix, err)
	}
	return &conf, nil
}

func resolveEnvPath() string {
	parseOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFilePath, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	return strings.TrimSpace(envFilePath)
}

func exportOnce(path string, optional bool) error {
	exportMu.Lock()
	defer exportMu.Unlock()

	if _, done := exportedAt[path]; done {
		return nil
	}

	if optional {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
	}

	if err := exportEnvironment(path); err != nil {
		return err
	}
	exportedAt[path] = struct{}{}
	return nil
}

// exportEnvironment copies every key of the file into the process environment.
// Variables already set in the environment win over the file.
func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}

	return nil
}
