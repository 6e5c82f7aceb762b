package pipelineconfig

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/factorpanel/internal/contracts"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match the pipeline configuration kind
func (e ValidationError) Unwrap() error {
	return contracts.ErrConfiguration
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 에러 필드명은 YAML 경로 사용 (예: momentum.trailing_window)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks tag rules first, then cross-field constraints
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return toValidationError(fieldErrs[0])
		}
		return ValidationError{"config", err.Error()}
	}

	// === Factors ===
	if _, err := cfg.FactorIDs(); err != nil {
		return ValidationError{"factors", err.Error()}
	}

	// === Size ===
	if cfg.Size.LowerPercentile >= cfg.Size.UpperPercentile {
		return ValidationError{"size", "lower_percentile must be < upper_percentile"}
	}

	// === Quality ===
	if cfg.Quality.MinScore < 0 || cfg.Quality.MinScore > 1 {
		return ValidationError{"quality.min_score", "must be in [0, 1]"}
	}
	if cfg.Quality.MinSymbolRetention < 0 || cfg.Quality.MinSymbolRetention > 1 {
		return ValidationError{"quality.min_symbol_retention", "must be in [0, 1]"}
	}

	return nil
}

func toValidationError(fe validator.FieldError) ValidationError {
	// Namespace: Config.momentum.trailing_window → momentum.trailing_window
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "required"
	case "min":
		msg = fmt.Sprintf("must have at least %s entries", fe.Param())
	case "oneof":
		msg = fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		msg = fmt.Sprintf("must be > %s", fe.Param())
	case "gte":
		msg = fmt.Sprintf("must be >= %s", fe.Param())
	case "lt":
		msg = fmt.Sprintf("must be < %s", fe.Param())
	case "lte":
		msg = fmt.Sprintf("must be <= %s", fe.Param())
	default:
		msg = fmt.Sprintf("failed %s validation", fe.Tag())
	}
	return ValidationError{field, msg}
}
