package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/paths"
	"github.com/GriffinCanCode/AgentOS/appswitch/internal/shared/types"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported manifest format")
	ErrMissingName       = errors.New("manifest has no name")
	ErrMissingCall       = errors.New("manifest has no call")
)

// Manifest is one parsed registration file
type Manifest struct {
	Path         string
	File         string
	Registration types.Registration
}

// Loader reads manifests from a directory
type Loader struct {
	dir    string
	prefix string
	logger *zap.Logger
}

// NewLoader creates a loader for dir publishing under prefix
func NewLoader(dir, prefix string, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{dir: dir, prefix: prefix, logger: logger}
}

// Load parses every manifest in the directory. Invalid files and duplicate
// paths are logged and skipped. A missing directory yields no manifests.
func (l *Loader) Load() ([]Manifest, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("Manifest directory not found", zap.String("dir", l.dir))
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var (
		manifests []Manifest
		seen      = make(map[string]string)
		failed    int
	)
	for _, entry := range entries {
		if entry.IsDir() || !Supported(entry.Name()) {
			continue
		}
		file := filepath.Join(l.dir, entry.Name())

		m, err := l.loadFile(file)
		if err != nil {
			failed++
			l.logger.Warn("Skipping invalid manifest", zap.String("file", file), zap.Error(err))
			continue
		}
		if prev, dup := seen[m.Path]; dup {
			failed++
			l.logger.Warn("Skipping manifest with duplicate path",
				zap.String("file", file),
				zap.String("path", m.Path),
				zap.String("first", prev))
			continue
		}
		seen[m.Path] = file
		manifests = append(manifests, m)
	}

	l.logger.Info("Manifests loaded",
		zap.String("dir", l.dir),
		zap.Int("loaded", len(manifests)),
		zap.Int("failed", failed))
	return manifests, nil
}

func (l *Loader) loadFile(file string) (Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Manifest{}, err
	}
	reg, err := Parse(file, data)
	if err != nil {
		return Manifest{}, err
	}
	return Manifest{
		Path:         paths.ObjectPath(l.prefix, reg.Name),
		File:         file,
		Registration: reg,
	}, nil
}

// Supported reports whether file has a manifest extension
func Supported(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml", ".toml":
		return true
	default:
		return false
	}
}

// Parse decodes and validates a manifest, choosing the format from the
// file extension
func Parse(file string, data []byte) (types.Registration, error) {
	var reg types.Registration

	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &reg); err != nil {
			return reg, fmt.Errorf("invalid YAML: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &reg); err != nil {
			return reg, fmt.Errorf("invalid TOML: %w", err)
		}
	default:
		return reg, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(file))
	}

	return reg, Validate(reg)
}

// Validate checks the required fields
func Validate(reg types.Registration) error {
	if strings.TrimSpace(reg.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(reg.Call) == "" {
		return ErrMissingCall
	}
	return nil
}
