package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requirements lists the keys that must be non-empty per environment
var requirements = map[Environment][]string{
	Development: {"SERVER_PORT", "DB_HOST", "DB_NAME"},
	Test:        {"SERVER_PORT"},
	CI:          {"SERVER_PORT", "DB_HOST", "DB_NAME", "DB_PASSWORD", "JWT_SECRET"},
	Production:  {"SERVER_PORT", "DB_HOST", "DB_NAME", "DB_USER", "DB_PASSWORD", "JWT_SECRET"},
}

// ValidateConfig checks if the configuration meets the requirements for the given environment
func ValidateConfig(env Environment, cfg *Config) error {
	values := map[string]string{
		"SERVER_PORT": cfg.ServerPort,
		"DB_HOST":     cfg.DBHost,
		"DB_NAME":     cfg.DBName,
		"DB_USER":     cfg.DBUser,
		"DB_PASSWORD": cfg.DBPassword,
		"JWT_SECRET":  cfg.JWTSecret,
	}

	var errs []string
	for _, key := range requirements[env] {
		if values[key] == "" {
			errs = append(errs, ValidationError{Field: key, Message: "is required"}.Error())
		}
	}

	switch cfg.DBSSLMode {
	case "disable", "require", "verify-ca", "verify-full":
	default:
		errs = append(errs, ValidationError{Field: "DB_SSL_MODE", Message: "unsupported mode " + cfg.DBSSLMode}.Error())
	}

	if cfg.PageSize < 1 {
		errs = append(errs, ValidationError{Field: "PAGE_SIZE", Message: "must be positive"}.Error())
	}
	if cfg.RecipeCreateLimit < 1 {
		errs = append(errs, ValidationError{Field: "RECIPE_CREATE_LIMIT", Message: "must be positive"}.Error())
	}
	if cfg.TokenTTL <= 0 {
		errs = append(errs, ValidationError{Field: "TOKEN_TTL", Message: "must be positive"}.Error())
	}

	// Development and test fall back to a throwaway signing key.
	if cfg.JWTSecret == "" && (env == Development || env == Test) {
		cfg.JWTSecret = "insecure-development-secret"
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "\n"))
	}
	return nil
}
