package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem the CLI reads and writes through; it can be
// replaced with another afero.Fs, such as a memory FS.
var AppFs = afero.NewOsFs()

// Config holds the CLI configuration.
type Config struct {
	DatabaseURL  string
	Engine       string
	SnapshotPath string
	PlanPath     string
}

// Load resolves configuration from config files, .env, the process
// environment and .env.local, in that order of increasing priority: .env
// only fills variables that are not already set, while .env.local
// overrides them.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName(".sqlpp")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "sqlpp"))

	viper.SetEnvPrefix("SQLPP")
	viper.AutomaticEnv()

	viper.SetDefault("engine", "mysql")
	viper.SetDefault("snapshot_path", "schema.snapshot.json")
	viper.SetDefault("plan_path", "plan.sql")

	// Config file is optional.
	_ = viper.ReadInConfig()

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Engine:       viper.GetString("engine"),
		SnapshotPath: viper.GetString("snapshot_path"),
		PlanPath:     viper.GetString("plan_path"),
	}
	if v := viper.GetString("database_url"); v != "" && cfg.DatabaseURL == "" {
		cfg.DatabaseURL = v
	}
	return cfg, nil
}

// ReadFile reads a file through the CLI filesystem.
func ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(AppFs, path)
}

// WriteFile writes a file through the CLI filesystem.
func WriteFile(path string, data []byte) error {
	return afero.WriteFile(AppFs, path, data, 0o644)
}
