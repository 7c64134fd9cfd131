package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches environment variable references in config values:
//   - ${VAR_NAME}          - simple variable
//   - ${VAR_NAME:-default} - default value if not set
//   - ${VAR_NAME:?error}   - error message if not set
//   - $VAR_NAME            - bare variable
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::(-|\?)([^}]*))?\}|\$([A-Z_][A-Z0-9_]*)`)

// Load reads a YAML configuration file, expands environment variables and
// resolves secrets. .env and .env.local are loaded first without overriding
// variables that are already set.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded, err := expandEnvVars(string(data))
	if err != nil {
		return nil, fmt.Errorf("config: expanding environment variables: %w", err)
	}

	cfg, err := Parse([]byte(expanded))
	if err != nil {
		return nil, err
	}

	ResolveSecrets(cfg)
	resolveRelativePaths(cfg, path)
	return cfg, nil
}

// LoadDefault loads path when set, otherwise the first file FindConfigFile
// finds, otherwise the built-in defaults. It returns the path used ("" for
// defaults).
func LoadDefault(path string) (*Config, string, error) {
	if path == "" {
		path = FindConfigFile()
	}
	if path == "" {
		loadEnvFiles()
		cfg := DefaultConfig()
		ResolveSecrets(cfg)
		return cfg, "", nil
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Parse overlays YAML bytes on DefaultConfig.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing YAML: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML with owner-only permissions. Secrets that came
// from the environment or keyring are written as references, not values.
func Save(cfg *Config, path string) error {
	out := *cfg
	out.Bot.Token = sanitizeSecret(cfg.Bot.Token, EnvBotToken)
	out.LLM.APIKey = sanitizeSecret(cfg.LLM.APIKey, EnvLLMAPIKey)

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// FindConfigFile searches the standard locations.
func FindConfigFile() string {
	candidates := []string{
		"config.yaml",
		"config.yml",
		"maxine.yaml",
		"maxine.yml",
		"data/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// IsEnvReference reports whether value is an unexpanded ${VAR} or $VAR.
func IsEnvReference(value string) bool {
	return envVarPattern.MatchString(value) && envVarPattern.FindString(value) == value
}

// loadEnvFiles loads .env files. godotenv.Load never overrides variables
// that are already set.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// expandEnvVars replaces variable references with their values. Unset
// variables without a modifier keep their placeholder; ${VAR:?msg} fails.
func expandEnvVars(input string) (string, error) {
	var firstErr error
	out := envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, modifier, arg, bare := m[1], m[2], m[3], m[4]

		if bare != "" {
			if val, ok := os.LookupEnv(bare); ok {
				return val
			}
			return match
		}

		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		switch modifier {
		case "-":
			return arg
		case "?":
			if firstErr == nil {
				if arg == "" {
					arg = "required environment variable not set"
				}
				firstErr = fmt.Errorf("%s: %s", name, arg)
			}
		}
		return match
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// resolveRelativePaths makes file paths relative to the config file.
func resolveRelativePaths(cfg *Config, configPath string) {
	dir := filepath.Dir(configPath)
	if cfg.Database.Path != "" && cfg.Database.Path != ":memory:" {
		cfg.Database.Path = resolvePath(cfg.Database.Path, dir)
	}
	if cfg.Media.TempDir != "" {
		cfg.Media.TempDir = resolvePath(cfg.Media.TempDir, dir)
	}
}

// resolvePath expands ~ and anchors relative paths at base.
func resolvePath(path, base string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// sanitizeSecret swaps a secret that is also present in the environment for
// a reference to it.
func sanitizeSecret(value, envVar string) string {
	if value == "" || IsEnvReference(value) {
		return value
	}
	if os.Getenv(envVar) == value {
		return "${" + envVar + "}"
	}
	return value
}
