package connector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Type identifies the kind of external data source a connector points at.
type Type string

const (
	TypeJDBC      Type = "JDBC"
	TypeSnowflake Type = "SNOWFLAKE"
	TypeRedshift  Type = "REDSHIFT"
	TypeS3        Type = "S3"
	TypeADLS      Type = "ADLS"
	TypeHopsFS    Type = "HOPSFS"
	TypeBigQuery  Type = "BIGQUERY"
	TypeKafka     Type = "KAFKA"
	TypeGCS       Type = "GCS"
)

var knownTypes = map[Type]bool{
	TypeJDBC: true, TypeSnowflake: true, TypeRedshift: true, TypeS3: true, TypeADLS: true,
	TypeHopsFS: true, TypeBigQuery: true, TypeKafka: true, TypeGCS: true,
}

// Known reports whether t is one of the connector types this client knows about.
func (t Type) Known() bool { return knownTypes[t] }

// StorageConnector is the backend's connector record. Only the envelope
// fields are typed; everything else is kept in Config.
type StorageConnector struct {
	ID             int64
	Name           string
	Description    string
	FeatureStoreID int64
	Type           Type
	Config         map[string]any

	raw json.RawMessage
}

var envelopeKeys = map[string]bool{
	"id": true, "name": true, "description": true, "featurestoreId": true,
	"storageConnectorType": true, "type": true, "href": true, "expand": true,
	"items": true, "count": true,
}

// FromResponseJSON decodes a connector response body.
func FromResponseJSON(data []byte) (*StorageConnector, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode storage connector: %w", err)
	}
	if fields == nil {
		return nil, fmt.Errorf("decode storage connector: body is not an object")
	}

	sc := &StorageConnector{
		Config: make(map[string]any),
		raw:    append(json.RawMessage(nil), data...),
	}

	if err := decodeField(fields, "id", &sc.ID); err != nil {
		return nil, err
	}
	if err := decodeField(fields, "name", &sc.Name); err != nil {
		return nil, err
	}
	if err := decodeField(fields, "description", &sc.Description); err != nil {
		return nil, err
	}
	if err := decodeField(fields, "featurestoreId", &sc.FeatureStoreID); err != nil {
		return nil, err
	}
	var typ string
	if err := decodeField(fields, "storageConnectorType", &typ); err != nil {
		return nil, err
	}
	sc.Type = Type(strings.ToUpper(typ))

	if sc.Name == "" {
		return nil, fmt.Errorf("decode storage connector: missing name")
	}

	for k, v := range fields {
		if envelopeKeys[k] {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("decode storage connector field %s: %w", k, err)
		}
		sc.Config[k] = val
	}

	return sc, nil
}

func decodeField(fields map[string]json.RawMessage, key string, dst any) error {
	v, ok := fields[key]
	if !ok || string(v) == "null" {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("decode storage connector field %s: %w", key, err)
	}
	return nil
}

// Raw returns the response body the connector was decoded from.
func (sc *StorageConnector) Raw() json.RawMessage { return sc.raw }

// Setting returns the Config value for key, or "" when absent or not a string.
func (sc *StorageConnector) Setting(key string) string {
	s, _ := sc.Config[key].(string)
	return s
}

// Arguments returns the connector's JDBC style "arguments" list as a map.
// The backend sends [{"name": k, "value": v}, ...].
func (sc *StorageConnector) Arguments() map[string]string {
	out := make(map[string]string)
	list, _ := sc.Config["arguments"].([]any)
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		if name == "" {
			continue
		}
		value, _ := m["value"].(string)
		out[name] = value
	}
	return out
}

func (sc *StorageConnector) MarshalJSON() ([]byte, error) {
	if len(sc.raw) > 0 {
		return sc.raw, nil
	}
	out := make(map[string]any, len(sc.Config)+5)
	for k, v := range sc.Config {
		out[k] = v
	}
	out["id"] = sc.ID
	out["name"] = sc.Name
	out["description"] = sc.Description
	out["featurestoreId"] = sc.FeatureStoreID
	out["storageConnectorType"] = string(sc.Type)
	return json.Marshal(out)
}
