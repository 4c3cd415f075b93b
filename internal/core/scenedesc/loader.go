package scenedesc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Loader parses the source named by key into a Description.
type Loader interface {
	Load(ctx context.Context, key string) (*Description, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, key string) (*Description, error)

func (f LoaderFunc) Load(ctx context.Context, key string) (*Description, error) {
	return f(ctx, key)
}

// FileLoader reads descriptions from disk. Relative keys resolve against Root.
// The file extension picks the decoder: .yaml, .yml, .json, .toml or .lua.
type FileLoader struct {
	Root string
}

var _ Loader = FileLoader{}

func (l FileLoader) Load(ctx context.Context, key string) (*Description, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := key
	if !filepath.IsAbs(path) && l.Root != "" {
		path = filepath.Join(l.Root, key)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read scene %s: %w", path, err)
	}
	d, err := Decode(ctx, filepath.Ext(path), raw)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", key, err)
	}
	d.Source = key
	return d, nil
}

// Decode parses raw bytes in the format named by ext, then normalizes and
// validates the result.
func Decode(ctx context.Context, ext string, raw []byte) (*Description, error) {
	d := &Description{}
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, d)
	case ".json":
		err = json.Unmarshal(raw, d)
	case ".toml":
		err = toml.Unmarshal(raw, d)
	case ".lua":
		d, err = decodeLua(ctx, raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidDescription) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDescription, err)
	}
	d.normalize()
	if err = d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}
