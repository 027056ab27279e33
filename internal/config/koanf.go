package config

import (
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// NewKoanf loads configuration from an optional .env file, then lets real
// environment variables override it.
func NewKoanf(log *zap.Logger) *koanf.Koanf {
	k := koanf.New(".")

	err := k.Load(file.Provider(".env"), dotenv.Parser())
	if err != nil {
		// No .env is fine in a container; everything comes from the env.
		log.Debug(".env file not found, using environment variables", zap.Error(err))
	}

	err = k.Load(env.Provider("", ".", nil), nil)
	if err != nil {
		log.Fatal("failed to load environment variables", zap.Error(err))
	}

	return k
}
