package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Data
	DataPath  string `mapstructure:"SCOUTSENSE_DATA"`
	DataDir   string `mapstructure:"SCOUTSENSE_DATA_DIR"`
	AutoTrain bool   `mapstructure:"SCOUTSENSE_AUTO_TRAIN"`

	// Training
	SuccessThreshold int     `mapstructure:"SUCCESS_THRESHOLD"`
	RandomSeed       int64   `mapstructure:"RANDOM_SEED"`
	TestSize         float64 `mapstructure:"TEST_SIZE"`
	TrainWorkers     int     `mapstructure:"TRAIN_WORKERS"`
	InferenceFill    string  `mapstructure:"INFERENCE_FILL"` // "zero", "median"

	// Gradient boosting (draft position)
	GBRNEstimators  int     `mapstructure:"GBR_N_ESTIMATORS"`
	GBRLearningRate float64 `mapstructure:"GBR_LEARNING_RATE"`
	GBRMaxDepth     int     `mapstructure:"GBR_MAX_DEPTH"`

	// Random forest (success)
	RFNEstimators int `mapstructure:"RF_N_ESTIMATORS"`
	RFMaxDepth    int `mapstructure:"RF_MAX_DEPTH"`

	// Merge
	MergeBaseYear       int `mapstructure:"MERGE_BASE_YEAR"`
	MergeRowsPerYear    int `mapstructure:"MERGE_ROWS_PER_YEAR"`
	MergeEngineeredYear int `mapstructure:"MERGE_ENGINEERED_YEAR"`
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	setDefaults(v)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	config.InferenceFill = strings.ToLower(strings.TrimSpace(config.InferenceFill))
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("SCOUTSENSE_DATA", "")
	v.SetDefault("SCOUTSENSE_DATA_DIR", "data")
	v.SetDefault("SCOUTSENSE_AUTO_TRAIN", true)

	v.SetDefault("SUCCESS_THRESHOLD", 5) // rounds 1-5 count as success
	v.SetDefault("RANDOM_SEED", 42)
	v.SetDefault("TEST_SIZE", 0.2)
	v.SetDefault("TRAIN_WORKERS", 4)
	v.SetDefault("INFERENCE_FILL", "zero")

	v.SetDefault("GBR_N_ESTIMATORS", 100)
	v.SetDefault("GBR_LEARNING_RATE", 0.1)
	v.SetDefault("GBR_MAX_DEPTH", 5)

	v.SetDefault("RF_N_ESTIMATORS", 100)
	v.SetDefault("RF_MAX_DEPTH", 10)

	v.SetDefault("MERGE_BASE_YEAR", 2000)
	v.SetDefault("MERGE_ROWS_PER_YEAR", 224) // 32 teams x 7 rounds
	v.SetDefault("MERGE_ENGINEERED_YEAR", 2009)
}

// Validate rejects settings the training code cannot work with.
func (c *Config) Validate() error {
	if c.TestSize < 0 || c.TestSize >= 1 {
		return fmt.Errorf("TEST_SIZE must be in [0,1), got %v", c.TestSize)
	}
	if c.InferenceFill != "zero" && c.InferenceFill != "median" {
		return fmt.Errorf("INFERENCE_FILL must be zero or median, got %q", c.InferenceFill)
	}
	if c.GBRNEstimators < 1 || c.RFNEstimators < 1 {
		return fmt.Errorf("estimator counts must be positive")
	}
	if c.GBRMaxDepth < 1 || c.RFMaxDepth < 1 {
		return fmt.Errorf("tree depths must be positive")
	}
	if c.MergeRowsPerYear < 1 {
		return fmt.Errorf("MERGE_ROWS_PER_YEAR must be positive, got %d", c.MergeRowsPerYear)
	}
	if c.TrainWorkers < 1 {
		c.TrainWorkers = 1
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
