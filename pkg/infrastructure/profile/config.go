package profile

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
	"github.com/emmanuel-ch/Product-Trailer/pkg/tracking"
)

//go:embed default_config.yaml
var defaultConfig []byte

// Config is the per-profile configuration, loaded from the profile's
// config.yaml or falling back to the embedded default.
type Config struct {
	Data   DataConfig   `yaml:"data" validate:"required"`
	Input  InputConfig  `yaml:"input" validate:"required"`
	Output OutputConfig `yaml:"output" validate:"required"`
}

// DataConfig controls how run state is persisted.
type DataConfig struct {
	// DatabaseFile is the sqlite file name inside the profile's data dir.
	DatabaseFile string `yaml:"database_file" validate:"required"`
	// SaveMovements enables the per-run movement audit trail.
	SaveMovements bool `yaml:"save_movements"`
}

// InputConfig describes the shape of the raw movement extracts.
type InputConfig struct {
	// EntryCodes are the movement codes that start tracking a product.
	EntryCodes []string `yaml:"entry_codes" validate:"required,min=1"`
	// SpecialStockIndicator gates entry points: only lines carrying it are
	// considered product placed at a customer.
	SpecialStockIndicator string `yaml:"special_stock_indicator" validate:"required"`
	// MaterialTypes filters the extract to finished goods. Empty keeps all.
	MaterialTypes []string `yaml:"material_types"`
	// FilePrefix selects input files inside the raw directory.
	FilePrefix string `yaml:"file_prefix"`
}

// OutputConfig controls report generation.
type OutputConfig struct {
	// Dir is the report directory relative to the profile dir.
	Dir string `yaml:"dir" validate:"required"`
	// ExcelReport enables the post-run Excel report.
	ExcelReport bool `yaml:"excel_report"`
}

func loadConfig(path string) (Config, error) {
	raw := defaultConfig
	if _, err := os.Stat(path); err == nil {
		raw, err = os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// EntryPoint builds the predicate deciding which movement lines start the
// tracking of new product.
func (c Config) EntryPoint() tracking.EntryPredicate {
	codes := make(map[string]struct{}, len(c.Input.EntryCodes))
	for _, code := range c.Input.EntryCodes {
		codes[code] = struct{}{}
	}
	indicator := c.Input.SpecialStockIndicator
	return func(line entities.MovementLine) bool {
		if line.SpecialStock != indicator {
			return false
		}
		_, ok := codes[line.MovementCode]
		return ok
	}
}
