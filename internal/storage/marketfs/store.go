// Package marketfs implements file-based JSON storage for market data
package marketfs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/quantfold/marketlens/internal/common"
	"github.com/quantfold/marketlens/internal/interfaces"
	"github.com/quantfold/marketlens/internal/models"
)

// Store keeps one JSON document per symbol in each of three
// subdirectories: prices, trades, and options. Writes are atomic via
// temp-file rename, so readers never observe a partial document.
type Store struct {
	basePath   string
	pricesDir  string
	tradesDir  string
	optionsDir string
	logger     *common.Logger
}

// NewStore opens (creating if needed) a market data store rooted at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create market store path %s: %w", path, err)
	}
	s := &Store{
		basePath:   path,
		pricesDir:  filepath.Join(path, "prices"),
		tradesDir:  filepath.Join(path, "trades"),
		optionsDir: filepath.Join(path, "options"),
		logger:     logger,
	}
	for _, dir := range []string{s.pricesDir, s.tradesDir, s.optionsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	logger.Info().Str("path", path).Msg("Market store opened")
	return s, nil
}

// DataPath returns the base data path.
func (s *Store) DataPath() string {
	return s.basePath
}

// GetPriceSeries loads the stored price history for a symbol, sorted by
// ascending date.
func (s *Store) GetPriceSeries(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var series models.PriceSeries
	if err := readJSON(s.pricesDir, symbol, &series); err != nil {
		return nil, err
	}
	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].Date.Before(series.Points[j].Date)
	})
	return &series, nil
}

// SavePriceSeries stores the full price history for a symbol.
func (s *Store) SavePriceSeries(ctx context.Context, series *models.PriceSeries) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if series == nil || series.Symbol == "" {
		return models.NewValidationError("symbol", "price series needs a symbol")
	}
	return writeJSON(s.pricesDir, series.Symbol, series)
}

// GetTrades loads the trade tape for a symbol, filtered to executions at
// or after the cutoff.
func (s *Store) GetTrades(ctx context.Context, symbol string, since time.Time) ([]models.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var trades []models.Trade
	if err := readJSON(s.tradesDir, symbol, &trades); err != nil {
		return nil, err
	}
	filtered := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.ExecutedAt.Before(since) {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// SaveTrades stores the trade tape for a symbol.
func (s *Store) SaveTrades(ctx context.Context, symbol string, trades []models.Trade) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if symbol == "" {
		return models.NewValidationError("symbol", "trades need a symbol")
	}
	return writeJSON(s.tradesDir, symbol, trades)
}

// GetOptionChains loads option chain snapshots for a symbol.
func (s *Store) GetOptionChains(ctx context.Context, symbol string) ([]models.OptionChainSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var chains []models.OptionChainSnapshot
	if err := readJSON(s.optionsDir, symbol, &chains); err != nil {
		return nil, err
	}
	return chains, nil
}

// SaveOptionChains stores option chain snapshots for a symbol.
func (s *Store) SaveOptionChains(ctx context.Context, symbol string, chains []models.OptionChainSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if symbol == "" {
		return models.NewValidationError("symbol", "option chains need a symbol")
	}
	return writeJSON(s.optionsDir, symbol, chains)
}

// Symbols lists all symbols with stored price history, sorted.
func (s *Store) Symbols(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys, err := listKeys(s.pricesDir)
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// PurgePrices removes all stored price history and returns the count.
func (s *Store) PurgePrices() int {
	return purgeDir(s.pricesDir)
}

// Close is a no-op for file-based storage.
func (s *Store) Close() error {
	return nil
}

// --- helpers ---

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func filePath(dir, key string) string {
	return filepath.Join(dir, sanitizeKey(key)+".json")
}

func readJSON(dir, key string, dest interface{}) error {
	path := filePath(dir, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("'%s' not found", key)
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("'%s' is empty", key)
	}
	return json.Unmarshal(data, dest)
}

func writeJSON(dir, key string, data interface{}) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	target := filePath(dir, key)
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func listKeys(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, ".tmp-") {
			keys = append(keys, strings.TrimSuffix(name, ".json"))
		}
	}
	return keys, nil
}

func purgeDir(dir string) int {
	keys, err := listKeys(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, key := range keys {
		if os.Remove(filePath(dir, key)) == nil {
			count++
		}
	}
	return count
}

var _ interfaces.MarketDataStore = (*Store)(nil)
