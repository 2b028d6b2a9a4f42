package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Order-Bot/bot/contract"
	"github.com/tanpawarit/Chative-Order-Bot/pkg/fsx"
)

const DefaultPath = "cardapio.json"

// Defaults is written whenever the catalog file is missing or unreadable.
func Defaults() []contractx.MenuItem {
	return []contractx.MenuItem{
		{ID: 1, Name: "Bolo de Cenoura com Chocolate", Price: 2500},
		{ID: 2, Name: "Bolo de Chocolate Caseiro", Price: 2800},
		{ID: 3, Name: "Bolo Formigueiro", Price: 2600},
		{ID: 4, Name: "Bolo de Fubá com Goiabada", Price: 2400},
		{ID: 5, Name: "Bolo de Milho Cremoso", Price: 2500},
	}
}

// FileStore keeps the catalog in a JSON array file.
// Reads and writes share one lock; writes go through a temp file and rename.
type FileStore struct {
	mu       sync.Mutex
	path     string
	defaults []contractx.MenuItem
}

var _ contractx.CatalogStore = (*FileStore)(nil)

type Option func(*FileStore)

func WithDefaults(items []contractx.MenuItem) Option {
	return func(s *FileStore) {
		if len(items) > 0 {
			s.defaults = append([]contractx.MenuItem(nil), items...)
		}
	}
}

func NewFileStore(path string, opts ...Option) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	s := &FileStore{path: path, defaults: Defaults()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns the catalog. A missing, empty or invalid file is replaced by the
// defaults and read once more; only a failure of that second read is returned.
func (s *FileStore) Load(ctx context.Context) ([]contractx.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err == nil {
		return items, nil
	}

	log.Warn().
		Err(err).
		Str("acao", "carregar_cardapio").
		Str("path", s.path).
		Msg("catalog unreadable, restoring defaults")

	if werr := s.write(s.defaults); werr != nil {
		return nil, fmt.Errorf("%w: repair catalog: %v", contractx.ErrStorageCorrupt, werr)
	}

	items, err = s.read()
	if err != nil {
		return nil, fmt.Errorf("%w: reload repaired catalog: %v", contractx.ErrStorageCorrupt, err)
	}
	return items, nil
}

// EnsureExists writes the defaults only when the file is absent.
func (s *FileStore) EnsureExists(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat catalog: %w", err)
	}

	if err := s.write(s.defaults); err != nil {
		return err
	}
	log.Info().Str("acao", "cardapio_criado").Str("path", s.path).Msg("default catalog written")
	return nil
}

// Save overwrites the whole catalog.
func (s *FileStore) Save(ctx context.Context, items []contractx.MenuItem) error {
	if err := validateItems(items); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(items)
}

// Find looks up an item by id on a fresh read of the file.
func (s *FileStore) Find(ctx context.Context, id int) (contractx.MenuItem, bool, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return contractx.MenuItem{}, false, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, true, nil
		}
	}
	return contractx.MenuItem{}, false, nil
}

// fileEntry mirrors MenuItem with the price optional so a missing key is detected.
type fileEntry struct {
	ID    int              `json:"id"`
	Name  string           `json:"nome"`
	Price *contractx.Money `json:"preco"`
}

func (s *FileStore) read() ([]contractx.MenuItem, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrStorageCorrupt, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: catalog file is empty", contractx.ErrStorageCorrupt)
	}

	var entries []fileEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode catalog: %v", contractx.ErrStorageCorrupt, err)
	}
	items := make([]contractx.MenuItem, 0, len(entries))
	for i, e := range entries {
		if e.Price == nil {
			return nil, fmt.Errorf("%w: entry %d has no preco", contractx.ErrStorageCorrupt, i)
		}
		items = append(items, contractx.MenuItem{ID: e.ID, Name: e.Name, Price: *e.Price})
	}
	if err := validateItems(items); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrStorageCorrupt, err)
	}
	return items, nil
}

func (s *FileStore) write(items []contractx.MenuItem) error {
	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	return fsx.WriteFileAtomic(s.path, payload, 0o644)
}

func validateItems(items []contractx.MenuItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: catalog has no items", contractx.ErrValidation)
	}
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
		if _, dup := seen[it.ID]; dup {
			return fmt.Errorf("%w: duplicate item id %d", contractx.ErrValidation, it.ID)
		}
		seen[it.ID] = struct{}{}
	}
	return nil
}
