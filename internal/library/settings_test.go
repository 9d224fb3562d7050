package library

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, path string, showTrove bool) {
	t.Helper()
	content := `[library]
show_trove_games = ` + map[bool]string{true: "true", false: "false"}[showTrove] + `
show_keys_without_game = true
show_revealed_keys = true
show_game_bundles = true
show_software = false
show_ebooks = false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestSettings(t *testing.T) {
	t.Run("ReloadUnchanged", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "config.toml")
		writeConfig(t, path, true)

		initial := Filters{TroveGames: true, KeysWithoutGame: true, RevealedKeys: true, GameBundles: true}
		settings := NewSettings(path, initial, nil)

		if settings.ReloadIfChanged() {
			t.Error("identical config should report no change")
		}
	})

	t.Run("ReloadChanged", func(t *testing.T) {
		tmpDir := t.TempDir()
		path := filepath.Join(tmpDir, "config.toml")
		writeConfig(t, path, true)

		initial := Filters{TroveGames: true, KeysWithoutGame: true, RevealedKeys: true, GameBundles: true}
		settings := NewSettings(path, initial, nil)

		writeConfig(t, path, false)
		if !settings.ReloadIfChanged() {
			t.Fatal("edited config should report a change")
		}
		if settings.Owned().TroveGames {
			t.Error("expected trove filter disabled after reload")
		}

		// Second reload with no further edits settles.
		if settings.ReloadIfChanged() {
			t.Error("expected no change on second reload")
		}
	})

	t.Run("ReloadMissingFile", func(t *testing.T) {
		initial := Filters{TroveGames: true}
		settings := NewSettings(filepath.Join(t.TempDir(), "missing.toml"), initial, nil)

		if settings.ReloadIfChanged() {
			t.Error("missing config should leave filters untouched")
		}
		if !settings.Owned().TroveGames {
			t.Error("filters should be unchanged")
		}
	})

	t.Run("NoConfigPath", func(t *testing.T) {
		settings := NewSettings("", Filters{}, nil)
		if settings.ReloadIfChanged() {
			t.Error("empty path should never report a change")
		}
	})
}
