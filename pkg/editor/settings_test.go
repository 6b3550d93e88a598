package editor

import (
	"os"
	"path/filepath"
	"testing"
)

func intPtr(n int) *int         { return &n }
func boolPtr(b bool) *bool      { return &b }
func themePtr(s string) *string { return &s }

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.Theme != ThemeDark {
		t.Errorf("Theme = %q, want %q", s.Theme, ThemeDark)
	}
	if s.FontSize != 14 {
		t.Errorf("FontSize = %d, want 14", s.FontSize)
	}
	if !s.AutoSave {
		t.Error("AutoSave should default to on")
	}
}

func TestApply_PartialPatch(t *testing.T) {
	s := DefaultSettings()

	merged, err := s.Apply(SettingsPatch{FontSize: intPtr(18)})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if merged.FontSize != 18 {
		t.Errorf("FontSize = %d, want 18", merged.FontSize)
	}
	// Untouched knobs keep their values.
	if merged.Theme != s.Theme || merged.TabSize != s.TabSize {
		t.Error("Apply() changed fields the patch never mentioned")
	}
	// The receiver itself is immutable.
	if s.FontSize != 14 {
		t.Error("Apply() mutated the receiver")
	}
}

func TestApply_RejectsBadValues(t *testing.T) {
	s := DefaultSettings()

	cases := []struct {
		name  string
		patch SettingsPatch
	}{
		{"unknown theme", SettingsPatch{Theme: themePtr("solarized")}},
		{"font too small", SettingsPatch{FontSize: intPtr(MinFontSize - 1)}},
		{"font too large", SettingsPatch{FontSize: intPtr(MaxFontSize + 1)}},
		{"tab size zero", SettingsPatch{TabSize: intPtr(0)}},
		{"tab size huge", SettingsPatch{TabSize: intPtr(MaxTabSize + 1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Apply(tc.patch); err == nil {
				t.Errorf("Apply() accepted %s", tc.name)
			}
		})
	}
}

func TestApply_InvalidFieldRejectsWholePatch(t *testing.T) {
	s := DefaultSettings()

	// One bad field, one good: nothing may apply.
	merged, err := s.Apply(SettingsPatch{
		FontSize: intPtr(200),
		WordWrap: boolPtr(false),
	})
	if err == nil {
		t.Fatal("Apply() should reject the patch")
	}
	if merged.WordWrap != s.WordWrap {
		t.Error("a rejected patch must not partially apply")
	}
}

func TestApply_BooleanToggles(t *testing.T) {
	s := DefaultSettings()

	merged, err := s.Apply(SettingsPatch{
		Minimap:      boolPtr(false),
		FormatOnSave: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if merged.Minimap {
		t.Error("Minimap = true, want toggled off")
	}
	if !merged.FormatOnSave {
		t.Error("FormatOnSave = false, want toggled on")
	}
}

// =========================================================================
// PERSISTENCE TESTS
// =========================================================================

func TestLoadSettings_MissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.json")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", s)
	}
}

func TestSaveAndLoadSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s := DefaultSettings()
	s.Theme = ThemeLight
	s.FontSize = 16
	s.WordWrap = false

	if err := SaveSettings(path, s); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if loaded != s {
		t.Errorf("loaded = %+v, want %+v", loaded, s)
	}
}

func TestLoadSettings_PartialFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	// A file written by an older version, missing newer fields.
	if err := os.WriteFile(path, []byte(`{"fontSize": 20}`), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if loaded.FontSize != 20 {
		t.Errorf("FontSize = %d, want 20 from the file", loaded.FontSize)
	}
	if loaded.Theme != ThemeDark {
		t.Errorf("Theme = %q, want the default to fill the gap", loaded.Theme)
	}
}

func TestLoadSettings_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s, err := LoadSettings(path)
	if err == nil {
		t.Fatal("LoadSettings() should report the parse failure")
	}
	// Corrupt file still hands back usable defaults.
	if s != DefaultSettings() {
		t.Errorf("settings = %+v, want defaults on corrupt input", s)
	}
}
