package apk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// TypeMonoBehaviour marks scriptable configuration objects in the client's
// asset containers
const TypeMonoBehaviour = "MonoBehaviour"

// Object is one deserialized engine object recovered from an asset stream
type Object struct {
	Type   string                 `json:"type"`
	Name   string                 `json:"name"`
	Fields map[string]interface{} `json:"fields"`
}

// Deserializer parses a serialized asset stream into engine objects. The
// binary decoding itself is an external collaborator; this package only
// consumes its generic object view.
type Deserializer interface {
	Parse(ctx context.Context, r io.Reader) ([]Object, error)
}

// PlayerSettingConfig is the typed configuration record embedded in the
// client, identified by the production_android marker name.
type PlayerSettingConfig struct {
	ClientMajorVersion     int
	ClientMinorVersion     int
	ClientBuildVersion     int
	ClientDataMajorVersion int
	ClientDataMinorVersion int
	ClientDataBuildVersion int
	// ClientDataRevision is carried by newer client builds only
	ClientDataRevision int
	ClientAppHash      string

	hasDataRevision bool
}

// AppVersion returns the client version the record was built with
func (c *PlayerSettingConfig) AppVersion() string {
	return fmt.Sprintf("%d.%d.%d", c.ClientMajorVersion, c.ClientMinorVersion, c.ClientBuildVersion)
}

// DataVersion returns the data version the record was built with
func (c *PlayerSettingConfig) DataVersion() string {
	return fmt.Sprintf("%d.%d.%d", c.ClientDataMajorVersion, c.ClientDataMinorVersion, c.ClientDataBuildVersion)
}

// AssetBundleVersion returns the asset bundle version, or "" when the
// record carries no data revision
func (c *PlayerSettingConfig) AssetBundleVersion() string {
	if !c.hasDataRevision {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", c.ClientMajorVersion, c.ClientMinorVersion, c.ClientDataRevision)
}

// configFromFields populates the typed record from the deserializer's
// generic field view
func configFromFields(fields map[string]interface{}) (*PlayerSettingConfig, error) {
	config := &PlayerSettingConfig{}

	intFields := []struct {
		name string
		dst  *int
	}{
		{"clientMajorVersion", &config.ClientMajorVersion},
		{"clientMinorVersion", &config.ClientMinorVersion},
		{"clientBuildVersion", &config.ClientBuildVersion},
		{"clientDataMajorVersion", &config.ClientDataMajorVersion},
		{"clientDataMinorVersion", &config.ClientDataMinorVersion},
		{"clientDataBuildVersion", &config.ClientDataBuildVersion},
	}

	for _, f := range intFields {
		value, err := intField(fields, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = value
	}

	if _, ok := fields["clientDataRevision"]; ok {
		revision, err := intField(fields, "clientDataRevision")
		if err != nil {
			return nil, err
		}
		config.ClientDataRevision = revision
		config.hasDataRevision = true
	}

	hash, ok := fields["clientAppHash"].(string)
	if !ok {
		return nil, fmt.Errorf("configuration record field clientAppHash missing or not a string")
	}
	config.ClientAppHash = hash

	return config, nil
}

func intField(fields map[string]interface{}, name string) (int, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("configuration record field %s missing", name)
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("configuration record field %s: %w", name, err)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("configuration record field %s has unexpected type %T", name, raw)
	}
}
