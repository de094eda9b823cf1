package rules

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// catalogueFile is the YAML document shape of a rule catalogue source.
type catalogueFile struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// Load reads a rule catalogue from the given path, dispatching on the file
// extension (.yaml/.yml or .xlsx). A missing source or an empty catalogue
// propagates as an error: the run must abort rather than silently validate
// nothing.
func Load(path string) (*Catalogue, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return nil, eris.Errorf("rules: unsupported catalogue format %q", filepath.Ext(path))
	}
}

// LoadYAML reads a YAML rule catalogue.
func LoadYAML(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rules: read catalogue %s", path)
	}

	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "rules: parse catalogue %s", path)
	}

	cat, err := NewCatalogue(file.Rules)
	if err != nil {
		return nil, err
	}

	zap.L().Info("rules: catalogue loaded",
		zap.String("path", path),
		zap.String("version", file.Version),
		zap.Int("rules", cat.Len()),
	)
	return cat, nil
}
