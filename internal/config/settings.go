package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"
)

const (
	SettingsFormatTOML SettingsFormat = "toml"
	SettingsFormatJSON SettingsFormat = "json"
	SettingsFormatYAML SettingsFormat = "yaml"
)

type Settings struct {
	Listen  string          `json:"listen"   toml:"listen"   yaml:"listen"`
	DataDir string          `json:"data_dir" toml:"data_dir" yaml:"data_dir"`
	Runner  RunnerSettings  `json:"runner"   toml:"runner"   yaml:"runner"`
	History HistorySettings `json:"history"  toml:"history"  yaml:"history"`
	Watcher WatcherSettings `json:"watcher"  toml:"watcher"  yaml:"watcher"`
}

type RunnerSettings struct {
	Binary         string `json:"binary"           toml:"binary"           yaml:"binary"`
	TimeoutSeconds int    `json:"timeout_seconds"  toml:"timeout_seconds"  yaml:"timeout_seconds"`
	MaxOutputBytes int64  `json:"max_output_bytes" toml:"max_output_bytes" yaml:"max_output_bytes"`
}

type HistorySettings struct {
	MaxEntries int `json:"max_entries" toml:"max_entries" yaml:"max_entries"`
}

type WatcherSettings struct {
	IntervalMillis int `json:"interval_ms" toml:"interval_ms" yaml:"interval_ms"`
}

type SettingsFormat string

type SettingsHandle struct {
	Path   string
	Format SettingsFormat
}

func DefaultSettings() Settings {
	return Settings{
		Listen:  "127.0.0.1:8787",
		DataDir: DefaultDataDir(),
		Runner: RunnerSettings{
			Binary:         "hurl",
			TimeoutSeconds: 30,
			MaxOutputBytes: 10 << 20,
		},
		History: HistorySettings{MaxEntries: 200},
		Watcher: WatcherSettings{IntervalMillis: 1000},
	}
}

// NormaliseSettings fills blanks and clamps out-of-range values so callers
// never have to re-validate downstream.
func NormaliseSettings(settings Settings) Settings {
	defaults := DefaultSettings()
	if settings.Listen == "" {
		settings.Listen = defaults.Listen
	}
	if settings.DataDir == "" {
		settings.DataDir = defaults.DataDir
	}
	if settings.Runner.Binary == "" {
		settings.Runner.Binary = defaults.Runner.Binary
	}
	if settings.Runner.TimeoutSeconds <= 0 || settings.Runner.TimeoutSeconds > 600 {
		settings.Runner.TimeoutSeconds = defaults.Runner.TimeoutSeconds
	}
	if settings.Runner.MaxOutputBytes <= 0 {
		settings.Runner.MaxOutputBytes = defaults.Runner.MaxOutputBytes
	}
	if settings.History.MaxEntries <= 0 {
		settings.History.MaxEntries = defaults.History.MaxEntries
	}
	if settings.Watcher.IntervalMillis < 100 {
		settings.Watcher.IntervalMillis = defaults.Watcher.IntervalMillis
	}
	return settings
}

// LoadSettings tries TOML first, then JSON, then YAML. Parse errors fail
// immediately but missing files just skip to the next format.
func LoadSettings() (Settings, SettingsHandle, error) {
	dir := Dir()
	candidates := []SettingsHandle{
		{Path: filepath.Join(dir, "settings.toml"), Format: SettingsFormatTOML},
		{Path: filepath.Join(dir, "settings.json"), Format: SettingsFormatJSON},
		{Path: filepath.Join(dir, "settings.yaml"), Format: SettingsFormatYAML},
	}

	var accumulated error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			accumulated = errors.Join(
				accumulated,
				fmt.Errorf("read settings %q: %w", candidate.Path, err),
			)
			continue
		}

		settings, err := decodeSettings(data, candidate.Format)
		if err != nil {
			return Settings{}, SettingsHandle{}, fmt.Errorf(
				"parse settings %q: %w",
				candidate.Path,
				err,
			)
		}
		return NormaliseSettings(settings), candidate, nil
	}

	if accumulated != nil {
		return Settings{}, SettingsHandle{}, accumulated
	}

	return DefaultSettings(), SettingsHandle{
		Path:   candidates[0].Path,
		Format: SettingsFormatTOML,
	}, nil
}

func decodeSettings(data []byte, format SettingsFormat) (Settings, error) {
	var settings Settings
	switch format {
	case SettingsFormatTOML:
		if err := toml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&settings); err != nil {
			return Settings{}, err
		}
	case SettingsFormatYAML:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return Settings{}, err
		}
	default:
		return Settings{}, fmt.Errorf("unsupported settings format %q", format)
	}
	return settings, nil
}

func SaveSettings(settings Settings, handle SettingsHandle) error {
	settings = NormaliseSettings(settings)
	path := handle.Path
	format := handle.Format
	if path == "" {
		path = filepath.Join(Dir(), "settings.toml")
	}
	if format == "" {
		format = SettingsFormatTOML
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure settings directory: %w", err)
	}

	var (
		data []byte
		err  error
	)

	switch format {
	case SettingsFormatTOML:
		data, err = toml.Marshal(settings)
	case SettingsFormatJSON:
		buffer := &bytes.Buffer{}
		encoder := json.NewEncoder(buffer)
		encoder.SetIndent("", "  ")
		if err = encoder.Encode(settings); err == nil {
			data = buffer.Bytes()
		}
	case SettingsFormatYAML:
		data, err = yaml.Marshal(settings)
	default:
		return fmt.Errorf("unsupported settings format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", path, err)
	}
	return nil
}

// write to temp file then rename so readers never see partial/corrupt data.
// rename is atomic on most filesystems so the settings file is always valid.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".hurldeck-settings-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Chmod(perm); err != nil {
		closeErr := tmp.Close()
		if closeErr != nil {
			return errors.Join(err, closeErr)
		}
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}

	return nil
}
