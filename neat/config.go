package neat

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Config stores every tunable of an evolutionary run, loaded from an INI file.
type Config struct {
	Neat         NeatConfig
	Genome       GenomeConfig
	Reproduction ReproductionConfig
	SpeciesSet   SpeciesSetConfig
	Stagnation   StagnationConfig
	Storage      StorageConfig
}

// NeatConfig holds run-level parameters.
type NeatConfig struct {
	PopSize              int           `ini:"pop_size"`
	FitnessThreshold     float64       `ini:"fitness_threshold"`
	NoFitnessTermination bool          `ini:"no_fitness_termination"`
	WorstFitness         float64       `ini:"worst_fitness"`
	EvalTimeout          time.Duration `ini:"eval_timeout"`
	EvalParallelism      int           `ini:"eval_parallelism"`
}

// GenomeConfig holds parameters governing genome structure, mutation, and
// crossover. The structural rates (conn_add_prob, node_add_prob, toggle_rate)
// are per genome per generation; the weight rates are per gene.
type GenomeConfig struct {
	NumInputs             int     `ini:"num_inputs"`
	NumOutputs            int     `ini:"num_outputs"`
	SeedConnectionDensity float64 `ini:"seed_connection_density"`
	ActivationDefault     string  `ini:"activation_default"`

	ConnAddProb     float64 `ini:"conn_add_prob"`
	NodeAddProb     float64 `ini:"node_add_prob"`
	ToggleRate      float64 `ini:"toggle_rate"`
	ConnAddAttempts int     `ini:"conn_add_attempts"`

	WeightPerturbRate  float64 `ini:"weight_perturb_rate"`
	WeightResetRate    float64 `ini:"weight_reset_rate"`
	WeightPerturbPower float64 `ini:"weight_perturb_power"`
	WeightInitMean     float64 `ini:"weight_init_mean"`
	WeightInitStdev    float64 `ini:"weight_init_stdev"`
	WeightMinValue     float64 `ini:"weight_min_value"`
	WeightMaxValue     float64 `ini:"weight_max_value"`

	GeneDisableInheritProb float64 `ini:"gene_disable_inherit_prob"`

	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient"`
}

// ReproductionConfig holds selection parameters used by the population driver.
type ReproductionConfig struct {
	Elitism           int     `ini:"elitism"`
	SurvivalThreshold float64 `ini:"survival_threshold"`
}

// SpeciesSetConfig holds speciation parameters. A compatibility_threshold of
// zero disables speciation entirely; selection then runs over the whole
// population.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold"`
}

// StagnationConfig holds parameters for removing species that stop improving.
type StagnationConfig struct {
	SpeciesFitnessFunc string `ini:"species_fitness_func"`
	MaxStagnation      int    `ini:"max_stagnation"`
	SpeciesElitism     int    `ini:"species_elitism"`
}

// StorageConfig selects the genome archive backend.
type StorageConfig struct {
	Backend    string `ini:"backend"`
	SQLitePath string `ini:"sqlite_path"`
}

// DefaultConfig returns a configuration with the defaults applied to every
// field, suitable as a starting point when no INI file is involved.
func DefaultConfig() *Config {
	cfg := &Config{
		Neat: NeatConfig{
			PopSize:              150,
			FitnessThreshold:     0,
			NoFitnessTermination: true,
			WorstFitness:         0,
			EvalTimeout:          30 * time.Second,
			EvalParallelism:      0, // 0 means NumCPU, resolved by the driver
		},
		Genome: GenomeConfig{
			NumInputs:             1,
			NumOutputs:            1,
			SeedConnectionDensity: 1.0,
			ActivationDefault:     "sigmoid",

			ConnAddProb:     0.1,
			NodeAddProb:     0.03,
			ToggleRate:      0.01,
			ConnAddAttempts: 20,

			WeightPerturbRate:  0.8,
			WeightResetRate:    0.1,
			WeightPerturbPower: 0.5,
			WeightInitMean:     0.0,
			WeightInitStdev:    1.0,
			WeightMinValue:     -30.0,
			WeightMaxValue:     30.0,

			GeneDisableInheritProb: 0.75,

			CompatibilityDisjointCoefficient: 1.0,
			CompatibilityWeightCoefficient:   0.5,
		},
		Reproduction: ReproductionConfig{
			Elitism:           2,
			SurvivalThreshold: 0.2,
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold: 0,
		},
		Stagnation: StagnationConfig{
			SpeciesFitnessFunc: "mean",
			MaxStagnation:      15,
			SpeciesElitism:     0,
		},
		Storage: StorageConfig{
			Backend: "memory",
		},
	}
	return cfg
}

// LoadConfig loads configuration parameters from an INI file. Missing keys
// keep their defaults; present keys are validated after mapping.
func LoadConfig(filePath string) (*Config, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:         true,
		UnescapeValueCommentSymbols: true,
	}, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := DefaultConfig()

	if err := file.Section("NEAT").MapTo(&config.Neat); err != nil {
		return nil, fmt.Errorf("failed to map [NEAT] section: %w", err)
	}
	if err := file.Section("Genome").MapTo(&config.Genome); err != nil {
		return nil, fmt.Errorf("failed to map [Genome] section: %w", err)
	}
	if err := file.Section("Reproduction").MapTo(&config.Reproduction); err != nil {
		return nil, fmt.Errorf("failed to map [Reproduction] section: %w", err)
	}
	if err := file.Section("SpeciesSet").MapTo(&config.SpeciesSet); err != nil {
		return nil, fmt.Errorf("failed to map [SpeciesSet] section: %w", err)
	}
	if err := file.Section("Stagnation").MapTo(&config.Stagnation); err != nil {
		return nil, fmt.Errorf("failed to map [Stagnation] section: %w", err)
	}
	if err := file.Section("Storage").MapTo(&config.Storage); err != nil {
		return nil, fmt.Errorf("failed to map [Storage] section: %w", err)
	}

	config.Genome.ActivationDefault = cleanIniString(config.Genome.ActivationDefault)
	config.Stagnation.SpeciesFitnessFunc = cleanIniString(config.Stagnation.SpeciesFitnessFunc)
	config.Storage.Backend = cleanIniString(config.Storage.Backend)
	config.Storage.SQLitePath = cleanIniString(config.Storage.SQLitePath)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks value ranges and cross-field consistency.
func (c *Config) Validate() error {
	g := &c.Genome
	if g.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if g.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if g.SeedConnectionDensity < 0 || g.SeedConnectionDensity > 1 {
		return fmt.Errorf("config error: seed_connection_density must be between 0 and 1")
	}
	for name, p := range map[string]float64{
		"conn_add_prob":             g.ConnAddProb,
		"node_add_prob":             g.NodeAddProb,
		"toggle_rate":               g.ToggleRate,
		"weight_perturb_rate":       g.WeightPerturbRate,
		"weight_reset_rate":         g.WeightResetRate,
		"gene_disable_inherit_prob": g.GeneDisableInheritProb,
		"survival_threshold":        c.Reproduction.SurvivalThreshold,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", name)
		}
	}
	if g.WeightPerturbRate+g.WeightResetRate > 1 {
		return fmt.Errorf("config error: weight_perturb_rate + weight_reset_rate must not exceed 1")
	}
	if g.ConnAddAttempts <= 0 {
		return fmt.Errorf("config error: conn_add_attempts must be positive")
	}
	if g.WeightMaxValue < g.WeightMinValue {
		return fmt.Errorf("config error: weight_max_value cannot be less than weight_min_value")
	}
	if g.CompatibilityDisjointCoefficient < 0 || g.CompatibilityWeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility coefficients cannot be negative")
	}
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if c.Reproduction.Elitism < 0 {
		return fmt.Errorf("config error: elitism cannot be negative")
	}
	if c.SpeciesSet.CompatibilityThreshold < 0 {
		return fmt.Errorf("config error: compatibility_threshold cannot be negative")
	}
	if c.Stagnation.MaxStagnation <= 0 {
		return fmt.Errorf("config error: max_stagnation must be positive")
	}
	if _, ok := StatFunctions[strings.ToLower(c.Stagnation.SpeciesFitnessFunc)]; !ok {
		return fmt.Errorf("config error: invalid species_fitness_func '%s'", c.Stagnation.SpeciesFitnessFunc)
	}
	switch c.Storage.Backend {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("config error: invalid storage backend '%s'", c.Storage.Backend)
	}
	return nil
}

// SeedNodeCount returns the number of nodes every seed genome starts with.
// The innovation tracker's node counter begins one past these.
func (gc *GenomeConfig) SeedNodeCount() int {
	return gc.NumInputs + gc.NumOutputs
}

// randomWeight draws a fresh connection weight from the configured gaussian,
// clamped to the configured bounds.
func (gc *GenomeConfig) randomWeight(rng *rand.Rand) float64 {
	return clamp(rng.NormFloat64()*gc.WeightInitStdev+gc.WeightInitMean, gc.WeightMinValue, gc.WeightMaxValue)
}

// cleanIniString removes inline comments and trims whitespace from a string
// read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
