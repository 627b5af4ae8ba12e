package config

// SecretStringValue must be exported - used in tests.
const SecretStringValue = "<secret>"

// SecretString is used for configuration fields (proxy credentials and the
// like) that must never surface in logs, configuration dumps or debug
// reports.
type SecretString string

// MarshalJSON replaces the actual value so configuration snapshots stored in
// debug reports stay shareable.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

// MarshalYAML replaces the actual value the same way for YAML output.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}
