package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Secrets holds credentials read from the environment (optionally via a .env file).
type Secrets struct {
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	S3AccessKey  string `envconfig:"STUDYCAST_S3_ACCESS_KEY"`
	S3SecretKey  string `envconfig:"STUDYCAST_S3_SECRET_KEY"`
}

// LoadSecrets loads .env if present and reads Secrets from the environment.
func LoadSecrets() (*Secrets, error) {
	_ = godotenv.Load()
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to read secrets from environment: %w", err)
	}
	return &s, nil
}

// APIKey returns the key for a provider name ("openai" or "gemini").
func (s *Secrets) APIKey(provider string) string {
	switch provider {
	case "gemini":
		return s.GeminiAPIKey
	case "openai":
		return s.OpenAIAPIKey
	}
	return ""
}
