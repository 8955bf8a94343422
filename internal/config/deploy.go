package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Deploy configures the durables deploy tool. The API token is never
// read from source: it comes from the config file or CF_API_TOKEN.
type Deploy struct {
	AccountID string `yaml:"account_id" env:"CF_ACCOUNT_ID" validate:"required"`
	APIToken  string `yaml:"api_token" env:"CF_API_TOKEN" validate:"required"`
	APIBase   string `yaml:"api_base" env:"CF_API_BASE" env-default:"https://api.cloudflare.com/client/v4" validate:"required,url"`

	DurableScript string `yaml:"durable_script" env:"CF_DURABLE_SCRIPT" env-default:"counter-durable" validate:"required"`
	CallingScript string `yaml:"calling_script" env:"CF_CALLING_SCRIPT" env-default:"counter-worker" validate:"required"`

	// DistDir holds the prebuilt worker.mjs and durable.mjs bundles.
	DistDir string `yaml:"dist_dir" env:"DURABLE_DIST_DIR" env-default:"dist" validate:"required"`

	// ReferencesPath is the durable.json bookkeeping file.
	ReferencesPath string `yaml:"references_path" env:"DURABLE_REFERENCES" env-default:"durable.json" validate:"required"`

	// SourceRoot is scanned for *.durable modules.
	SourceRoot string `yaml:"source_root" env:"DURABLE_SOURCE_ROOT" env-default:"." validate:"required"`

	// WorkerEntry is the calling worker's entry module; namespace
	// suffixes are hashed relative to its directory.
	WorkerEntry string `yaml:"worker_entry" env:"DURABLE_WORKER_ENTRY" env-default:"counter.worker.js" validate:"required"`
}

// LoadDeploy reads the deploy config from path, or from the environment
// alone when path is empty.
func LoadDeploy(path string) (*Deploy, error) {
	var cfg Deploy

	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read deploy config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid deploy config: %w", err)
	}
	return &cfg, nil
}
