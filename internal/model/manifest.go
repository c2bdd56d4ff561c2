package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Manifest is the sidecar JSON written by the export tool next to the ONNX
// graph. It names the I/O tensors, carries the preprocessing image size, and
// embeds the exported layer configurations for validation.
type Manifest struct {
	SchemaVersion int         `json:"schema_version"`
	Input         TensorSpec  `json:"input"`
	Output        TensorSpec  `json:"output"`
	ImageSize     int         `json:"image_size"`
	Layers        []LayerSpec `json:"layers,omitempty"`
}

// TensorSpec describes one model tensor by graph name and shape. A leading
// -1 means a dynamic batch dimension.
type TensorSpec struct {
	Name  string  `json:"name"`
	Shape []int64 `json:"shape"`
}

// LayerSpec is one exported layer configuration.
type LayerSpec struct {
	Type       string `json:"type"`
	Name       string `json:"name"`
	Units      int    `json:"units,omitempty"`
	Activation string `json:"activation,omitempty"`
}

// recognizedKeys declares, per manifest object, the configuration keys this
// runtime understands. Newer export tooling adds keys (quantization hints,
// tool metadata) that older runtimes must tolerate: anything not listed here
// is stripped before decoding, so manifests written by a newer format
// version still load. Recognized fields pass through unaltered.
var recognizedKeys = map[string][]string{
	"":       {"schema_version", "input", "output", "image_size", "layers"},
	"input":  {"name", "shape"},
	"output": {"name", "shape"},
	"layers": {"type", "name", "units", "activation"},
}

// LoadManifest reads, sanitizes and strictly decodes a manifest file.
// A missing file is ErrNotFound; anything else is a load error.
func LoadManifest(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, fmt.Errorf("%w: manifest %s", ErrNotFound, path)
		}
		return Manifest{}, fmt.Errorf("model: reading manifest %s: %w", path, err)
	}
	return ParseManifest(raw)
}

// ParseManifest applies the schema-compatibility transform and decodes the
// result. Decoding is strict after the transform: a manifest that is
// malformed in a recognized field still fails loudly.
func ParseManifest(raw []byte) (Manifest, error) {
	clean, err := sanitizeManifest(raw)
	if err != nil {
		return Manifest{}, fmt.Errorf("model: parsing manifest: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(clean))
	dec.DisallowUnknownFields()
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("model: decoding manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// sanitizeManifest drops every key not declared in recognizedKeys. The
// transform is deterministic and never rewrites a recognized value.
func sanitizeManifest(raw []byte) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	out := filterObject(doc, recognizedKeys[""])

	for _, section := range []string{"input", "output"} {
		sec, ok := out[section]
		if !ok {
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(sec, &obj); err != nil {
			return nil, fmt.Errorf("section %q: %w", section, err)
		}
		cleaned, err := json.Marshal(filterObject(obj, recognizedKeys[section]))
		if err != nil {
			return nil, err
		}
		out[section] = cleaned
	}

	if rawLayers, ok := out["layers"]; ok {
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(rawLayers, &items); err != nil {
			return nil, fmt.Errorf("section \"layers\": %w", err)
		}
		for i, item := range items {
			items[i] = filterObject(item, recognizedKeys["layers"])
		}
		cleaned, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		out["layers"] = cleaned
	}

	return json.Marshal(out)
}

func filterObject(obj map[string]json.RawMessage, allowed []string) map[string]json.RawMessage {
	keep := make(map[string]json.RawMessage, len(allowed))
	for _, k := range allowed {
		if v, ok := obj[k]; ok {
			keep[k] = v
		}
	}
	return keep
}

func (m Manifest) validate() error {
	if m.Input.Name == "" || m.Output.Name == "" {
		return fmt.Errorf("model: manifest missing input/output tensor names")
	}
	if len(m.Input.Shape) != 4 {
		return fmt.Errorf("model: expected 4D input shape, got %v", m.Input.Shape)
	}
	if len(m.Output.Shape) != 2 {
		return fmt.Errorf("model: expected 2D output shape, got %v", m.Output.Shape)
	}
	if m.ImageSize <= 0 {
		return fmt.Errorf("model: manifest missing image_size")
	}
	if n := len(m.Layers); n > 0 {
		last := m.Layers[n-1]
		if last.Units > 0 && int64(last.Units) != m.Output.Shape[1] {
			return fmt.Errorf("model: final layer units %d do not match output dimension %d",
				last.Units, m.Output.Shape[1])
		}
	}
	return nil
}

// NumClasses is the width of the model's output vector.
func (m Manifest) NumClasses() int {
	return int(m.Output.Shape[1])
}

// InputLen is the element count of one input tensor (batch size 1).
func (m Manifest) InputLen() int {
	n := 1
	for _, d := range m.Input.Shape {
		if d > 0 {
			n *= int(d)
		}
	}
	return n
}
