// Package config loads the analysis manifest: where the tool outputs live, which
// simulations exist, how super clusters are grouped into tunnels, and the
// thresholds used by each analysis.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aravindramcb/water-models/internal/core/grouping"
	"github.com/aravindramcb/water-models/internal/core/model"
	"github.com/aravindramcb/water-models/internal/util"
	"github.com/spf13/viper"
)

// Config is the complete manifest
type Config struct {
	TransportTools TransportToolsConfig `mapstructure:"transport_tools"`
	Simulations    SimulationsConfig    `mapstructure:"simulations"`
	Groups         []GroupConfig        `mapstructure:"groups"`
	Analysis       AnalysisConfig       `mapstructure:"analysis"`
	Cpptraj        CpptrajConfig        `mapstructure:"cpptraj"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Output         OutputConfig         `mapstructure:"output"`
}

// TransportToolsConfig locates a TransportTools run. Relative sub-directories
// are resolved against ResultsDir.
type TransportToolsConfig struct {
	ResultsDir       string `mapstructure:"results_dir"`
	ComparativeDir   string `mapstructure:"comparative_dir"`
	DetailsDir       string `mapstructure:"details_dir"`
	ProfilesDir      string `mapstructure:"profiles_dir"`
	ExactMatchingDir string `mapstructure:"exact_matching_dir"`
}

// SimulationsConfig describes the MD simulation tree
type SimulationsConfig struct {
	ResultsDir string   `mapstructure:"results_dir"`
	Models     []string `mapstructure:"models"`
	Epochs     []string `mapstructure:"epochs"`
	Replicas   int      `mapstructure:"replicas"`
	// IDs overrides the models x epochs x replicas matrix when set.
	IDs                  []string `mapstructure:"ids"`
	FramesPerSimulation  int      `mapstructure:"frames_per_simulation"`
	FrameTimePs          float64  `mapstructure:"frame_time_ps"`
	CaverCharacteristics string   `mapstructure:"caver_characteristics"`
	AquaductResults      string   `mapstructure:"aquaduct_results"`
	// OpeningsDir holds the <tunnel>_openings.csv helix distance tables.
	// Defaults to ResultsDir.
	OpeningsDir string `mapstructure:"openings_dir"`
}

// GroupConfig is one named tunnel group
type GroupConfig struct {
	Name          string `mapstructure:"name"`
	SuperClusters []int  `mapstructure:"superclusters"`
}

// AnalysisConfig holds thresholds shared by the analyses
type AnalysisConfig struct {
	Attribution       string  `mapstructure:"attribution"`
	FrequencyCutoff   float64 `mapstructure:"frequency_cutoff"`
	DistanceThreshold float64 `mapstructure:"distance_threshold"`
	FractionThreshold float64 `mapstructure:"fraction_threshold"`
	Concurrency       int     `mapstructure:"concurrency"`
}

// CpptrajConfig configures the external trajectory tool
type CpptrajConfig struct {
	Binary     string `mapstructure:"binary"`
	Topology   string `mapstructure:"topology"`
	Trajectory string `mapstructure:"trajectory"`
	BatchSize  int    `mapstructure:"batch_size"`
	WorkDir    string `mapstructure:"work_dir"`
}

type CacheConfig struct {
	Dir     string `mapstructure:"dir"`
	Enabled bool   `mapstructure:"enabled"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

const (
	envPrefix         = "WATER_MODELS"
	defaultConfigName = "water-models"
)

// Load reads the manifest at path. With an empty path it looks for
// water-models.{yaml,toml,json} in the working directory and falls back to
// defaults when none exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(util.ExpandPath(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.expandPaths()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("transport_tools.results_dir", ".")
	v.SetDefault("transport_tools.comparative_dir", filepath.Join("statistics", "comparative_analysis"))
	v.SetDefault("transport_tools.details_dir", filepath.Join("data", "super_clusters", "details"))
	v.SetDefault("transport_tools.profiles_dir", filepath.Join("data", "super_clusters", "CSV_profiles", "filtered01"))
	v.SetDefault("transport_tools.exact_matching_dir", filepath.Join("data", "exact_matching_analysis"))

	v.SetDefault("simulations.results_dir", ".")
	v.SetDefault("simulations.models", []string{"opc", "tip3p", "tip4pew"})
	v.SetDefault("simulations.epochs", []string{"1A", "1.4A", "1.8A", "2.4A", "3A"})
	v.SetDefault("simulations.replicas", 5)
	v.SetDefault("simulations.frames_per_simulation", 0)
	v.SetDefault("simulations.frame_time_ps", 10.0)
	v.SetDefault("simulations.caver_characteristics",
		filepath.Join("caver_analyses", "final_clustering", "analysis", "tunnel_characteristics.csv"))
	v.SetDefault("simulations.aquaduct_results", filepath.Join("aquaduct", "5_analysis_results.txt"))
	v.SetDefault("simulations.openings_dir", "")

	v.SetDefault("analysis.attribution", string(grouping.ModeAll))
	v.SetDefault("analysis.frequency_cutoff", 0.2)
	v.SetDefault("analysis.distance_threshold", 0.0)
	v.SetDefault("analysis.fraction_threshold", 0.7)
	v.SetDefault("analysis.concurrency", 0)

	v.SetDefault("cpptraj.binary", "cpptraj")
	v.SetDefault("cpptraj.topology", "structure_HMR.parm7")
	v.SetDefault("cpptraj.trajectory", "merged.nc")
	v.SetDefault("cpptraj.batch_size", 1000)
	v.SetDefault("cpptraj.work_dir", "")

	v.SetDefault("cache.dir", "~/.water-models/cache")
	v.SetDefault("cache.enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "~/.water-models/logs/app.log")

	v.SetDefault("output.format", "table")
	v.SetDefault("output.dir", ".")
}

func (c *Config) expandPaths() {
	c.TransportTools.ResultsDir = util.ExpandPath(c.TransportTools.ResultsDir)
	c.Simulations.ResultsDir = util.ExpandPath(c.Simulations.ResultsDir)
	if c.Simulations.OpeningsDir != "" {
		c.Simulations.OpeningsDir = util.ExpandPath(c.Simulations.OpeningsDir)
	}
	c.Cache.Dir = util.ExpandPath(c.Cache.Dir)
	c.Logging.File = util.ExpandPath(c.Logging.File)
	c.Output.Dir = util.ExpandPath(c.Output.Dir)
	if c.Cpptraj.WorkDir != "" {
		c.Cpptraj.WorkDir = util.ExpandPath(c.Cpptraj.WorkDir)
	}
}

// Validate checks the manifest for values no analysis can work with
func (c *Config) Validate() error {
	if c.TransportTools.ResultsDir == "" {
		return fmt.Errorf("transport_tools.results_dir is required")
	}

	if len(c.Simulations.IDs) == 0 {
		if len(c.Simulations.Models) == 0 {
			return fmt.Errorf("simulations.models must contain at least one water model")
		}
		if len(c.Simulations.Epochs) == 0 {
			return fmt.Errorf("simulations.epochs must contain at least one epoch")
		}
		if c.Simulations.Replicas < 1 {
			return fmt.Errorf("simulations.replicas must be at least 1")
		}
	}
	for _, id := range c.Simulations.IDs {
		if _, err := model.ParseSimulationID(id); err != nil {
			return fmt.Errorf("simulations.ids: %w", err)
		}
	}
	if c.Simulations.FramesPerSimulation < 0 {
		return fmt.Errorf("simulations.frames_per_simulation must not be negative")
	}
	if c.Simulations.FrameTimePs <= 0 {
		return fmt.Errorf("simulations.frame_time_ps must be positive")
	}

	if err := c.GroupDefinitions().Validate(); err != nil {
		return fmt.Errorf("groups: %w", err)
	}

	if _, err := grouping.ParseMode(c.Analysis.Attribution); err != nil {
		return fmt.Errorf("analysis.attribution: %w", err)
	}
	if c.Analysis.FrequencyCutoff < 0 || c.Analysis.FrequencyCutoff > 1 {
		return fmt.Errorf("analysis.frequency_cutoff must be between 0.0 and 1.0")
	}
	if c.Analysis.FractionThreshold < 0 || c.Analysis.FractionThreshold > 1 {
		return fmt.Errorf("analysis.fraction_threshold must be between 0.0 and 1.0")
	}
	if c.Analysis.Concurrency < 0 {
		return fmt.Errorf("analysis.concurrency must not be negative")
	}

	if c.Cpptraj.BatchSize < 1 {
		return fmt.Errorf("cpptraj.batch_size must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	validOutputs := map[string]bool{"table": true, "csv": true, "json": true}
	if !validOutputs[c.Output.Format] {
		return fmt.Errorf("output.format must be one of: table, csv, json")
	}

	return nil
}

// GroupDefinitions converts the configured groups, preserving their order
func (c *Config) GroupDefinitions() grouping.Definitions {
	defs := make(grouping.Definitions, 0, len(c.Groups))
	for _, g := range c.Groups {
		defs = append(defs, grouping.Definition{Name: g.Name, SuperClusters: g.SuperClusters})
	}
	return defs
}

// AttributionMode returns the parsed attribution mode
func (c *Config) AttributionMode() grouping.Mode {
	m, err := grouping.ParseMode(c.Analysis.Attribution)
	if err != nil {
		return grouping.ModeAll
	}
	return m
}

// SimulationList returns the configured simulations, sorted
func (c *Config) SimulationList() ([]model.Simulation, error) {
	if len(c.Simulations.IDs) == 0 {
		return model.Matrix(c.Simulations.Epochs, c.Simulations.Models, c.Simulations.Replicas), nil
	}

	sims := make([]model.Simulation, 0, len(c.Simulations.IDs))
	for _, id := range c.Simulations.IDs {
		s, err := model.ParseSimulationID(id)
		if err != nil {
			return nil, err
		}
		sims = append(sims, s)
	}
	model.Sort(sims)
	return sims, nil
}

// Concurrency returns the worker count, defaulting to the CPU count
func (c *Config) Concurrency() int {
	if c.Analysis.Concurrency > 0 {
		return c.Analysis.Concurrency
	}
	return runtime.NumCPU()
}

func (t TransportToolsConfig) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(t.ResultsDir, p)
}

// ComparativePath is the comparative-analysis directory holding one folder per
// model/epoch combination.
func (t TransportToolsConfig) ComparativePath() string {
	return t.resolve(t.ComparativeDir)
}

// DetailsFile returns the path of a file in the super cluster details directory
func (t TransportToolsConfig) DetailsFile(name string) string {
	return filepath.Join(t.resolve(t.DetailsDir), name)
}

func (t TransportToolsConfig) ProfilesPath() string {
	return t.resolve(t.ProfilesDir)
}

func (t TransportToolsConfig) ExactMatchingPath() string {
	return t.resolve(t.ExactMatchingDir)
}

// OpeningsFile returns the path of a helix distance table
func (s SimulationsConfig) OpeningsFile(name string) string {
	dir := s.OpeningsDir
	if dir == "" {
		dir = s.ResultsDir
	}
	return filepath.Join(dir, name)
}

// SimulationFile returns rel inside the directory of simulation id
func (s SimulationsConfig) SimulationFile(id, rel string) string {
	return filepath.Join(s.ResultsDir, id, rel)
}
