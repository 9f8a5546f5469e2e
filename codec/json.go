package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec.
//
// Numbers decoded into interface values become float64, so property values
// lose their integer type on a round trip. Use Msgpack when that matters.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used for dump manifests and graph JSON.
var Default Codec = GoJSON{}
