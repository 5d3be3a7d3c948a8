// Package file reads flag documents from a local TOML, YAML or JSON file.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fieldday/flagd"
	"github.com/fieldday/flagd/kit/platform/errors"
	"gopkg.in/yaml.v3"
)

// Format of a configuration file.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from the file extension.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".toml":
		return FormatTOML, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// Source reads the document at path on every Get, so edits are picked up
// without a restart.
type Source struct {
	path   string
	format Format
}

var _ flagd.Source = (*Source)(nil)

// NewSource returns a Source for path. The format is inferred from the
// extension.
func NewSource(path string) (*Source, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, &errors.Error{
			Code: errors.EInvalid,
			Op:   "file.NewSource",
			Msg:  "unsupported file extension " + filepath.Ext(path) + "; expected .json, .toml, .yaml or .yml",
		}
	}
	return &Source{path: path, format: format}, nil
}

// Name implements flagd.Source.
func (s *Source) Name() string { return "file" }

// Get implements flagd.Source. The value at key is returned re-encoded as JSON.
func (s *Source) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		code := errors.EUnavailable
		if os.IsNotExist(err) {
			code = errors.ENotFound
		}
		return nil, &errors.Error{Code: code, Op: "file.Get", Msg: "unable to read " + s.path, Err: err}
	}

	doc := make(map[string]interface{})
	switch s.format {
	case FormatJSON:
		err = json.Unmarshal(b, &doc)
	case FormatTOML:
		err = toml.Unmarshal(b, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(b, &doc)
	}
	if err != nil {
		return nil, &errors.Error{Code: errors.EInvalid, Op: "file.Get", Msg: "unable to parse " + s.path, Err: err}
	}

	v, ok := doc[key]
	if !ok || v == nil {
		return nil, nil
	}

	out, err := json.Marshal(v)
	if err != nil {
		return nil, &errors.Error{Code: errors.EInvalid, Op: "file.Get", Msg: "value at " + key + " is not representable as JSON", Err: err}
	}
	return out, nil
}
