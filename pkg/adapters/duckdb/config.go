package duckdb

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Params is the duckdb block of a target's params.
type Params struct {
	// Extensions are installed and loaded when the session opens. A
	// comma-separated string is accepted, which is how env vars arrive.
	Extensions []string `mapstructure:"extensions"`

	// Settings are applied with SET, e.g. memory_limit or threads.
	Settings map[string]string `mapstructure:"settings"`
}

// parseParams decodes the free-form params block of the target config.
func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid duckdb params: %w", err)
	}
	return p, nil
}
