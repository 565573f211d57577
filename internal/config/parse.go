package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseGlobalConfig decodes a config file. Unknown keys and type mismatches
// are errors; an empty document yields the zero config.
func ParseGlobalConfig(data []byte) (*GlobalConfig, error) {
	cfg := new(GlobalConfig)
	if err := StrictUnmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse global config: %w", err)
	}
	return cfg, nil
}

// StrictUnmarshal is yaml.Unmarshal with KnownFields set. The policy loader
// shares it so both files reject misspelled keys the same way.
func StrictUnmarshal(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	switch err := dec.Decode(v); {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	default:
		return fmt.Errorf("decode YAML: %w", err)
	}
}

// MarshalGlobalConfig renders cfg as YAML for `kota config show` and
// `/config show`.
func MarshalGlobalConfig(cfg *GlobalConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("marshal global config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal global config: %w", err)
	}
	return buf.Bytes(), nil
}
