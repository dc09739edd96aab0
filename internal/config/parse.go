package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Parse decodes a TOML document into a Config. Fields the document omits
// keep their default values and unknown keys are ignored.
func Parse(data []byte) (Config, error) {
	return parse("<input>", data)
}

func parse(source string, data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		perr := &ParseError{
			Path:    source,
			Message: err.Error(),
			Err:     err,
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return Config{}, perr
	}

	cfg.normalize()

	if err := structValidator().Struct(cfg); err != nil {
		return Config{}, &ParseError{
			Path:    source,
			Message: fmt.Sprintf("validation failed: %v", err),
			Err:     err,
		}
	}
	return cfg, nil
}
