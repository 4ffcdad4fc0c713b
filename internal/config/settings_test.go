package config

import (
	"testing"
)

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()
	if settings.Listen == "" || settings.DataDir == "" {
		t.Fatalf("defaults incomplete: %+v", settings)
	}
	if settings.Runner.TimeoutSeconds != 30 {
		t.Fatalf("unexpected default timeout: %d", settings.Runner.TimeoutSeconds)
	}
	if settings.Runner.MaxOutputBytes != 10<<20 {
		t.Fatalf("unexpected default output cap: %d", settings.Runner.MaxOutputBytes)
	}
}

func TestNormaliseSettingsClampsValues(t *testing.T) {
	settings := NormaliseSettings(Settings{
		Runner:  RunnerSettings{TimeoutSeconds: -5, MaxOutputBytes: 0},
		History: HistorySettings{MaxEntries: -1},
		Watcher: WatcherSettings{IntervalMillis: 1},
	})
	defaults := DefaultSettings()

	if settings.Runner.TimeoutSeconds != defaults.Runner.TimeoutSeconds {
		t.Fatalf("timeout not clamped: %d", settings.Runner.TimeoutSeconds)
	}
	if settings.Runner.MaxOutputBytes != defaults.Runner.MaxOutputBytes {
		t.Fatalf("output cap not clamped: %d", settings.Runner.MaxOutputBytes)
	}
	if settings.History.MaxEntries != defaults.History.MaxEntries {
		t.Fatalf("history cap not clamped: %d", settings.History.MaxEntries)
	}
	if settings.Watcher.IntervalMillis != defaults.Watcher.IntervalMillis {
		t.Fatalf("interval not clamped: %d", settings.Watcher.IntervalMillis)
	}
	if settings.Listen != defaults.Listen || settings.Runner.Binary != defaults.Runner.Binary {
		t.Fatalf("blanks not filled: %+v", settings)
	}
}

func TestNormaliseSettingsKeepsValid(t *testing.T) {
	in := Settings{
		Listen:  "0.0.0.0:9000",
		DataDir: "/tmp/deck",
		Runner:  RunnerSettings{Binary: "/usr/local/bin/hurl", TimeoutSeconds: 60, MaxOutputBytes: 1 << 20},
		History: HistorySettings{MaxEntries: 50},
		Watcher: WatcherSettings{IntervalMillis: 250},
	}
	if got := NormaliseSettings(in); got != in {
		t.Fatalf("valid settings rewritten: %+v", got)
	}
}

func TestDecodeSettingsFormats(t *testing.T) {
	cases := []struct {
		format SettingsFormat
		data   string
	}{
		{SettingsFormatTOML, "listen = \"127.0.0.1:9999\"\n[runner]\ntimeout_seconds = 45\n"},
		{SettingsFormatJSON, `{"listen":"127.0.0.1:9999","runner":{"timeout_seconds":45}}`},
		{SettingsFormatYAML, "listen: 127.0.0.1:9999\nrunner:\n  timeout_seconds: 45\n"},
	}
	for _, tc := range cases {
		settings, err := decodeSettings([]byte(tc.data), tc.format)
		if err != nil {
			t.Fatalf("%s: %v", tc.format, err)
		}
		if settings.Listen != "127.0.0.1:9999" {
			t.Fatalf("%s: unexpected listen %q", tc.format, settings.Listen)
		}
		if settings.Runner.TimeoutSeconds != 45 {
			t.Fatalf("%s: unexpected timeout %d", tc.format, settings.Runner.TimeoutSeconds)
		}
	}
}

func TestDecodeSettingsRejectsUnknownJSONFields(t *testing.T) {
	if _, err := decodeSettings([]byte(`{"bogus":true}`), SettingsFormatJSON); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}
