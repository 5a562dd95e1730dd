// loader.go: description files in JSON, YAML and other argus formats
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a description from disk. The format follows the file
// extension: .json and .tp are definition documents, .yaml/.yml use the same
// shape in YAML, and other formats argus understands (TOML, HCL, INI) are
// parsed by argus and then decoded as a definition document.
func LoadFile(path string) (*PluginDescription, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, NewDescriptionReadError(path, err)
	}
	return Parse(data, path)
}

// Parse decodes data using the format implied by name.
func Parse(data []byte, name string) (*PluginDescription, error) {
	if strings.EqualFold(filepath.Ext(name), ".tp") {
		return ParseDefinition(data)
	}

	format := argus.DetectFormat(name)
	switch format {
	case argus.FormatJSON:
		return ParseDefinition(data)

	case argus.FormatYAML:
		var doc definitionDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, NewDefinitionDecodeError("invalid YAML", err)
		}
		return fromDoc(&doc)

	default:
		configMap, err := argus.ParseConfig(data, format)
		if err != nil {
			return nil, NewUnsupportedFormatError(name, format.String(), err)
		}
		// Round-trip through JSON so every format shares one decoder.
		raw, err := json.Marshal(configMap)
		if err != nil {
			return nil, NewDefinitionDecodeError("unencodable "+format.String()+" document", err)
		}
		return ParseDefinition(raw)
	}
}
