package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/shotmaker/internal/scene"
)

const (
	DefaultSettle = 500 * time.Millisecond
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Config describes one batch run. It is loaded from a YAML run file,
// then environment variables and command line flags override it.
type Config struct {
	Scene string `yaml:"scene"`

	Templates []string `yaml:"templates"`

	LightGroups [][]string `yaml:"light_groups"`
	Lights      []string   `yaml:"lights"`

	Cameras              []CameraConfig `yaml:"cameras"`
	UseOnlyPrimaryCamera bool           `yaml:"use_only_primary_camera"`
	AllLookAtTarget      bool           `yaml:"all_look_at_target"`

	// Target is a scene object name; empty means the world origin.
	Target       string     `yaml:"target"`
	TargetOffset scene.Vec3 `yaml:"target_offset"`

	Scale     int           `yaml:"scale"`
	Settle    time.Duration `yaml:"settle"`
	Retries   int           `yaml:"retries"`
	OutputDir string        `yaml:"output_dir"`
	Width     int           `yaml:"width"`
	Height    int           `yaml:"height"`
	StampQR   bool          `yaml:"stamp_qr"`
	Verify    bool          `yaml:"verify"`
	Detector  string        `yaml:"detector"`

	Logging LoggingConfig `yaml:"logging"`

	ShowStats    bool   `yaml:"-"`
	BuildVersion string `yaml:"-"`
}

type CameraConfig struct {
	Name         string `yaml:"name"`
	LookAtTarget bool   `yaml:"look_at_target"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

func Default() *Config {
	return &Config{
		Scale:     1,
		Settle:    DefaultSettle,
		OutputDir: "output",
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Detector:  "contrast",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads the run file on top of the defaults and applies environment
// overrides. The result still has to pass Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse run file %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment without
// overwriting variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SHOTMAKER_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("SHOTMAKER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SHOTMAKER_SCALE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SHOTMAKER_SCALE: %w", err)
		}
		c.Scale = n
	}
	if v := os.Getenv("SHOTMAKER_SETTLE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHOTMAKER_SETTLE: %w", err)
		}
		c.Settle = d
	}
	return nil
}

// Validate reports every problem at once so the operator can fix the run
// file in one pass.
func (c *Config) Validate() error {
	var errs []error
	if c.Scene == "" {
		errs = append(errs, errors.New("scene: не указан файл сцены"))
	}
	if len(c.Templates) == 0 {
		errs = append(errs, errors.New("templates: список пуст"))
	}
	for i, t := range c.Templates {
		if t == "" {
			errs = append(errs, fmt.Errorf("templates[%d]: пустое имя", i))
		}
	}
	for i, g := range c.LightGroups {
		if len(g) == 0 {
			errs = append(errs, fmt.Errorf("light_groups[%d]: пустая группа", i))
		}
	}
	for i, cam := range c.Cameras {
		if cam.Name == "" {
			errs = append(errs, fmt.Errorf("cameras[%d]: пустое имя", i))
		}
	}
	if c.Scale < 1 {
		errs = append(errs, fmt.Errorf("scale: должен быть >= 1, получено %d", c.Scale))
	}
	if c.Settle < 0 {
		errs = append(errs, fmt.Errorf("settle: отрицательная задержка %s", c.Settle))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries: отрицательное значение %d", c.Retries))
	}
	if c.Width < 1 || c.Height < 1 {
		errs = append(errs, fmt.Errorf("размер кадра %dx%d недопустим", c.Width, c.Height))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir: не указан"))
	}
	return errors.Join(errs...)
}
