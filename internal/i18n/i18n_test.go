package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "en.yaml", `
en:
  start:
    welcome: "Welcome!"
  errors:
    action_failed: "Something went wrong."
`)
	writeCatalog(t, dir, "ru.yaml", `
ru:
  start:
    welcome: "Добро пожаловать!"
`)

	m, err := LoadFromDir(dir, "en")
	require.NoError(t, err)

	en := m.Translator("en")
	assert.Equal(t, "Welcome!", en.T("start.welcome"))
	assert.Equal(t, "Something went wrong.", en.T("errors.action_failed"))

	ru := m.Translator("ru")
	assert.Equal(t, "ru", ru.Lang())
	assert.Equal(t, "Добро пожаловать!", ru.T("start.welcome"))
}

func TestTranslator_Fallbacks(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "messages.yaml", `
en:
  start:
    welcome: "Welcome!"
ru:
  start:
    welcome: "Добро пожаловать!"
`)

	m, err := LoadFromDir(dir, "en")
	require.NoError(t, err)

	t.Run("unknown language falls back to default", func(t *testing.T) {
		tr := m.Translator("fr")
		assert.Equal(t, "en", tr.Lang())
		assert.Equal(t, "Welcome!", tr.T("start.welcome"))
	})

	t.Run("missing key falls back to default language", func(t *testing.T) {
		dir := t.TempDir()
		writeCatalog(t, dir, "messages.yaml", `
en:
  help:
    text: "Commands: /order"
ru:
  start:
    welcome: "Добро пожаловать!"
`)

		m, err := LoadFromDir(dir, "en")
		require.NoError(t, err)

		ru := m.Translator("ru")
		assert.Equal(t, "Commands: /order", ru.T("help.text"))
	})

	t.Run("unknown key returns the key", func(t *testing.T) {
		tr := m.Translator("en")
		assert.Equal(t, "no.such.key", tr.T("no.such.key"))
	})

	t.Run("empty key", func(t *testing.T) {
		tr := m.Translator("en")
		assert.Empty(t, tr.T(""))
	})
}

func TestLoadFromDir_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := LoadFromDir(filepath.Join(t.TempDir(), "nope"), "en")
		assert.Error(t, err)
	})

	t.Run("no yaml files", func(t *testing.T) {
		dir := t.TempDir()
		writeCatalog(t, dir, "notes.txt", "not yaml")

		_, err := LoadFromDir(dir, "en")
		assert.Error(t, err)
	})

	t.Run("default language missing", func(t *testing.T) {
		dir := t.TempDir()
		writeCatalog(t, dir, "ru.yaml", "ru:\n  start:\n    welcome: \"Привет\"\n")

		_, err := LoadFromDir(dir, "en")
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeCatalog(t, dir, "en.yaml", "en: [unclosed")

		_, err := LoadFromDir(dir, "en")
		assert.Error(t, err)
	})
}

func TestNilManagerTranslator(t *testing.T) {
	var m *Manager
	tr := m.Translator("en")
	assert.Equal(t, "some.key", tr.T("some.key"))
}
