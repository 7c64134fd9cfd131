package config

import (
	"errors"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name used in the OS keyring.
	KeyringService = "maxine"

	// KeyringBotToken and KeyringLLMAPIKey are the keyring entry names.
	KeyringBotToken  = "bot_token"
	KeyringLLMAPIKey = "llm_api_key"

	// EnvBotToken and EnvLLMAPIKey override the config file values.
	EnvBotToken  = "MAXINE_BOT_TOKEN"
	EnvLLMAPIKey = "MAXINE_LLM_API_KEY"
)

// StoreSecret saves a secret in the OS keyring.
func StoreSecret(key, value string) error {
	return keyring.Set(KeyringService, key, value)
}

// GetSecret reads a secret from the OS keyring. Missing entries and an
// unavailable keyring both yield "".
func GetSecret(key string) string {
	val, err := keyring.Get(KeyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteSecret removes a secret from the OS keyring. Deleting a missing
// entry is not an error.
func DeleteSecret(key string) error {
	err := keyring.Delete(KeyringService, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// ResolveSecrets fills secrets using keyring → environment → config value.
// A config value that is still an unexpanded ${VAR} reference counts as
// empty.
func ResolveSecrets(cfg *Config) {
	cfg.Bot.Token = resolveSecret(cfg.Bot.Token, KeyringBotToken, EnvBotToken)
	cfg.LLM.APIKey = resolveSecret(cfg.LLM.APIKey, KeyringLLMAPIKey, EnvLLMAPIKey)
}

func resolveSecret(current, keyringKey, envVar string) string {
	if v := GetSecret(keyringKey); v != "" {
		return v
	}
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	if IsEnvReference(current) {
		return ""
	}
	return current
}
