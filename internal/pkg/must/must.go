package must

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// PanicIf will call panic(err) in case given err is not nil.
func PanicIf(err error) {
	if err != nil {
		panic(err)
	}
}

// UnmarshalYaml is a wrapper for yaml.Unmarshal.
func UnmarshalYaml(data []byte, v interface{}) {
	err := yaml.Unmarshal(data, v)
	PanicIf(err)
}

// MarshalYaml is a wrapper for yaml.Marshal.
func MarshalYaml(v interface{}) []byte {
	data, err := yaml.Marshal(v)
	PanicIf(err)
	return data
}

func MarshalJsonIndent(v interface{}, prefix, indent string) []byte {
	data, err := json.MarshalIndent(v, prefix, indent)
	PanicIf(err)
	return data
}
