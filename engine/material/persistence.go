package material

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for mapping files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("material: unsupported mapping file format")

// mappingFile is the on-disk layout shared by both formats.
type mappingFile struct {
	Materials []BindingRule `yaml:"materials" toml:"materials"`
}

// LoadRules reads a material mapping file. The format is chosen by extension:
// .yaml/.yml use YAML, .toml uses TOML.
//
// Parameters:
//   - path: the mapping file path
//
// Returns:
//   - []BindingRule: the decoded rules
//   - error: error if the file cannot be read or decoded
func LoadRules(path string) ([]BindingRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read material mappings %s: %w", path, err)
	}
	var mf mappingFile
	switch format(path) {
	case "yaml":
		err = yaml.Unmarshal(data, &mf)
	case "toml":
		err = toml.Unmarshal(data, &mf)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode material mappings %s: %w", path, err)
	}
	for i, r := range mf.Materials {
		if r.ShaderName == "" {
			return nil, fmt.Errorf("failed to decode material mappings %s: entry %d has no shader name", path, i)
		}
	}
	return mf.Materials, nil
}

// LoadTable reads a mapping file into a new Table.
//
// Parameters:
//   - path: the mapping file path
//
// Returns:
//   - Table: the loaded table
//   - error: error if loading fails
func LoadTable(path string) (Table, error) {
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return NewTable(rules...), nil
}

// SaveTable writes the table's rules to path in the format implied by its extension.
// The file is written to a temporary sibling and renamed so watchers never observe a partial file.
//
// Parameters:
//   - path: the destination file path
//   - t: the table to persist
//
// Returns:
//   - error: error if encoding or writing fails
func SaveTable(path string, t Table) error {
	mf := mappingFile{Materials: t.Rules()}
	var (
		data []byte
		err  error
	)
	switch format(path) {
	case "yaml":
		data, err = yaml.Marshal(&mf)
	case "toml":
		data, err = toml.Marshal(&mf)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("failed to encode material mappings: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write material mappings %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	}
	return ""
}
