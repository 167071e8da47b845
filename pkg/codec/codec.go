package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/pkg/form"
)

// Format names an encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// ErrUnknownFormat is returned for encodings other than JSON, YAML and TOML.
var ErrUnknownFormat = errors.New("codec: unknown format")

// ParseFormat accepts a format name in any case, plus "yml".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "toml":
		return TOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Marshal encodes v. JSON output is indented with two spaces.
func Marshal(v any, format Format) ([]byte, error) {
	switch format {
	case JSON:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("codec: encode json: %w", err)
		}
		return append(out, '\n'), nil
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("codec: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("codec: encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case TOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(v); err != nil {
			return nil, fmt.Errorf("codec: encode toml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, format Format, v any) error {
	switch format {
	case JSON:
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("codec: decode json: %w", err)
		}
	case YAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("codec: decode yaml: %w", err)
		}
	case TOML:
		if _, err := toml.Decode(string(data), v); err != nil {
			return fmt.Errorf("codec: decode toml: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// EncodeValues encodes a value bag. TOML has no null, so nil entries are
// left out of TOML output.
func EncodeValues(values form.Values, format Format) ([]byte, error) {
	bag := map[string]any(values)
	if bag == nil {
		bag = map[string]any{}
	}
	if format == TOML {
		bag = dropNil(bag)
	}
	return Marshal(bag, format)
}

// DecodeValues decodes and normalises a value bag. An empty document is an
// empty bag.
func DecodeValues(data []byte, format Format) (form.Values, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		if _, err := ParseFormat(string(format)); err != nil {
			return nil, err
		}
		return form.Values{}, nil
	}
	var bag map[string]any
	if err := Unmarshal(data, format, &bag); err != nil {
		return nil, err
	}
	out := make(form.Values, len(bag))
	for k, v := range bag {
		out[k] = Normalize(v)
	}
	return out, nil
}

// Normalize rewrites a decoded value into the shapes forms hold.
func Normalize(value any) any {
	switch typed := value.(type) {
	case nil, string, bool:
		return typed
	case form.Values:
		return normalizeMap(typed)
	case map[string]any:
		return normalizeMap(typed)
	case []map[string]any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = normalizeMap(v)
		}
		return out
	case []string:
		return append([]string{}, typed...)
	case []any:
		if strs, ok := stringList(typed); ok {
			return strs
		}
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = Normalize(v)
		}
		return out
	}
	if f, ok := form.ToFloat(value); ok {
		return f
	}
	return value
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}

func stringList(items []any) ([]string, bool) {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func dropNil(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch typed := v.(type) {
		case nil:
			continue
		case map[string]any:
			out[k] = dropNil(typed)
		case form.Values:
			out[k] = dropNil(typed)
		default:
			out[k] = v
		}
	}
	return out
}
