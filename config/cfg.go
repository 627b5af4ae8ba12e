package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"hfc/layout"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// FontsConfig describes the font catalog available to the target
	// environment. An empty catalog falls back to the built-in web-safe set.
	FontsConfig struct {
		Catalog map[string][]string `yaml:"catalog"`
	}

	// AssetsConfig controls the asset resolution pipeline.
	AssetsConfig struct {
		DirectOrigins    []string     `yaml:"direct_origins"`
		ProxyEndpoints   []string     `yaml:"proxy_endpoints"`
		ProxyAuthToken   SecretString `yaml:"proxy_auth_token"`
		FetchTimeoutSec  int          `yaml:"fetch_timeout_sec" validate:"min=1"`
		TranscodeTimeout int          `yaml:"transcode_timeout_sec" validate:"min=1"`
		TranscodeRetries int          `yaml:"transcode_retries" validate:"min=0,max=10"`
		JPEGQuality      int          `yaml:"jpeg_quality_level" validate:"min=40,max=100"`
	}

	// DocumentConfig controls scene materialization and output naming.
	DocumentConfig struct {
		ApplyAutoLayout       bool              `yaml:"apply_auto_layout"`
		FileNameTransliterate bool              `yaml:"file_name_transliterate"`
		Layout                layout.Thresholds `yaml:"layout"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Fonts     FontsConfig    `yaml:"fonts"`
		Assets    AssetsConfig   `yaml:"assets"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
