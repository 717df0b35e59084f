package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yuya-takeyama/strict-dedup/pkg/checksum"
	"github.com/yuya-takeyama/strict-dedup/pkg/planner"
)

// ValidateConfig checks every field before any filesystem work starts.
func ValidateConfig(cfg *Config) error {
	validate := validator.New()

	_ = validate.RegisterValidation("keeperstrategy", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		if name == "" {
			return true
		}
		_, err := planner.ParseStrategy(name)
		return err == nil
	})

	_ = validate.RegisterValidation("hashalgo", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		if name == "" {
			return true
		}
		_, err := checksum.ParseAlgorithm(name)
		return err == nil
	})

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "json":
			return true
		default:
			return false
		}
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msg := fmt.Sprintf("field %s failed rule %q", e.StructNamespace(), e.Tag())
			if e.Value() != nil && e.Value() != "" {
				msg += fmt.Sprintf(" (value: %v)", e.Value())
			}
			msgs = append(msgs, msg)
		}
		return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
	}
	return fmt.Errorf("config validation error: %w", err)
}
