package engine

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// Config holds the immutable parameters of one backtest run. All amounts are
// in wallet currency at daily frequency.
type Config struct {
	// InitialCapital is the starting capital in currency units.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting capital for the backtest in PLN,minimum=0" validate:"gt=0"`
	// CommissionBps is the broker commission in basis points of traded
	// notional, charged per unit of turnover.
	CommissionBps float64 `yaml:"commission_bps" json:"commission_bps" jsonschema:"title=Commission,description=Broker commission in basis points of traded notional,minimum=0" validate:"gte=0"`
	// SlippageBps is the slippage in basis points of traded notional,
	// charged per unit of turnover.
	SlippageBps float64 `yaml:"slippage_bps" json:"slippage_bps" jsonschema:"title=Slippage,description=Slippage in basis points of traded notional,minimum=0" validate:"gte=0"`
	// MaxGrossLeverage caps the combined |long| + |short| portfolio weight.
	MaxGrossLeverage float64 `yaml:"max_gross_leverage" json:"max_gross_leverage" jsonschema:"title=Max Gross Leverage,description=Cap on combined long plus short exposure,minimum=0" validate:"gt=0"`
	// TradingDaysPerYear is the annualization base.
	TradingDaysPerYear int `yaml:"trading_days_per_year" json:"trading_days_per_year" jsonschema:"title=Trading Days Per Year,description=Number of trading days used for annualization,minimum=1" validate:"gt=0"`
}

// DefaultConfig returns the standard GPW daily-bar configuration.
func DefaultConfig() Config {
	return Config{
		InitialCapital:     100_000.0,
		CommissionBps:      5.0, // 5 bps = 0.05%
		SlippageBps:        2.0, // 2 bps = 0.02%
		MaxGrossLeverage:   1.0,
		TradingDaysPerYear: 252,
	}
}

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	return nil
}

// costPerTurnover is the per-unit-of-turnover cost as a return fraction.
func (c *Config) costPerTurnover() float64 {
	return (c.CommissionBps + c.SlippageBps) / 10_000.0
}

// GenerateSchema generates a JSON schema for the backtest Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(c)

	// Set schema metadata
	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for the backtest engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the backtest Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	return string(schemaBytes), nil
}
