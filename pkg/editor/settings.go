package editor

import (
	"encoding/json"
	"fmt"
	"os"
)

// Editor themes.
const (
	ThemeDark  = "vs-dark"
	ThemeLight = "vs-light"
)

// Font size and tab size bounds.
const (
	MinFontSize = 8
	MaxFontSize = 32
	MinTabSize  = 1
	MaxTabSize  = 8
)

// Settings are the editor preferences. They live client-side only; the
// server never sees them.
type Settings struct {
	Theme         string `json:"theme"`
	FontSize      int    `json:"fontSize"`
	TabSize       int    `json:"tabSize"`
	WordWrap      bool   `json:"wordWrap"`
	Minimap       bool   `json:"minimap"`
	LineNumbers   bool   `json:"lineNumbers"`
	FontLigatures bool   `json:"fontLigatures"`
	FormatOnSave  bool   `json:"formatOnSave"`
	AutoSave      bool   `json:"autoSave"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() Settings {
	return Settings{
		Theme:       ThemeDark,
		FontSize:    14,
		TabSize:     2,
		WordWrap:    true,
		Minimap:     true,
		LineNumbers: true,
		AutoSave:    true,
	}
}

// SettingsPatch is a partial settings update. Nil fields are left
// untouched, so a caller can change one knob without knowing the rest.
type SettingsPatch struct {
	Theme         *string `json:"theme,omitempty"`
	FontSize      *int    `json:"fontSize,omitempty"`
	TabSize       *int    `json:"tabSize,omitempty"`
	WordWrap      *bool   `json:"wordWrap,omitempty"`
	Minimap       *bool   `json:"minimap,omitempty"`
	LineNumbers   *bool   `json:"lineNumbers,omitempty"`
	FontLigatures *bool   `json:"fontLigatures,omitempty"`
	FormatOnSave  *bool   `json:"formatOnSave,omitempty"`
	AutoSave      *bool   `json:"autoSave,omitempty"`
}

// Apply validates the patch and returns the merged settings. The
// receiver is unchanged; an invalid field rejects the whole patch.
func (s Settings) Apply(patch SettingsPatch) (Settings, error) {
	out := s

	if patch.Theme != nil {
		switch *patch.Theme {
		case ThemeDark, ThemeLight:
			out.Theme = *patch.Theme
		default:
			return s, fmt.Errorf("editor: unknown theme %q", *patch.Theme)
		}
	}
	if patch.FontSize != nil {
		if *patch.FontSize < MinFontSize || *patch.FontSize > MaxFontSize {
			return s, fmt.Errorf("editor: font size %d out of range [%d, %d]", *patch.FontSize, MinFontSize, MaxFontSize)
		}
		out.FontSize = *patch.FontSize
	}
	if patch.TabSize != nil {
		if *patch.TabSize < MinTabSize || *patch.TabSize > MaxTabSize {
			return s, fmt.Errorf("editor: tab size %d out of range [%d, %d]", *patch.TabSize, MinTabSize, MaxTabSize)
		}
		out.TabSize = *patch.TabSize
	}
	if patch.WordWrap != nil {
		out.WordWrap = *patch.WordWrap
	}
	if patch.Minimap != nil {
		out.Minimap = *patch.Minimap
	}
	if patch.LineNumbers != nil {
		out.LineNumbers = *patch.LineNumbers
	}
	if patch.FontLigatures != nil {
		out.FontLigatures = *patch.FontLigatures
	}
	if patch.FormatOnSave != nil {
		out.FormatOnSave = *patch.FormatOnSave
	}
	if patch.AutoSave != nil {
		out.AutoSave = *patch.AutoSave
	}

	return out, nil
}

// LoadSettings reads settings from a JSON file, merging the stored
// values over the defaults so files written by older versions (missing
// newer fields) still load sensibly. A missing file yields defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("editor: reading settings: %w", err)
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("editor: parsing settings: %w", err)
	}
	return settings, nil
}

// SaveSettings writes settings to path as indented JSON.
func SaveSettings(path string, settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("editor: encoding settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("editor: writing settings: %w", err)
	}
	return nil
}
