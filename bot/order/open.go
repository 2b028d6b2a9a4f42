package order

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is loaded with the ORDER_STORE_ prefix.
type Config struct {
	Driver string `split_words:"true" default:"file"`
	Path   string `split_words:"true" default:"pedidos.json"`
	DSN    string `split_words:"true"`
}

// Store is an OrderStore that owns resources released by Close.
type Store interface {
	contractx.OrderStore
	Close() error
}

func (s *FileStore) Close() error { return nil }

func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverFile:
		return NewFileStore(cfg.Path), nil
	case DriverSQLite:
		path := cfg.Path
		if path == "" || path == DefaultPath {
			path = "pedidos.db"
		}
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown order store driver %q", contractx.ErrValidation, cfg.Driver)
	}
}
