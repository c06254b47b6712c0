package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConfig represents a test configuration structure.
type TestConfig struct {
	Config string `help:"Config file path"`

	StringField string   `toml:"test.string_field" env:"STRING_FIELD"`
	BoolField   bool     `toml:"test.bool_field" env:"BOOL_FIELD"`
	IntField    int      `toml:"test.int_field" env:"INT_FIELD"`
	SliceField  []string `toml:"test.slice_field" env:"SLICE_FIELD"`

	NestedString string `toml:"nested.value" env:"NESTED_VALUE"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hwscan.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, `
[test]
string_field = "hello world"
bool_field = true
int_field = 42
slice_field = ["item1", "item2", "item3"]

[nested]
value = "nested value"
`)

	config := &TestConfig{Config: path}
	require.NoError(t, LoadConfig(config, nil))

	assert.Equal(t, "hello world", config.StringField)
	assert.True(t, config.BoolField)
	assert.Equal(t, 42, config.IntField)
	assert.Equal(t, []string{"item1", "item2", "item3"}, config.SliceField)
	assert.Equal(t, "nested value", config.NestedString)
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("HWSCAN_STRING_FIELD", "env string")
	t.Setenv("HWSCAN_BOOL_FIELD", "true")
	t.Setenv("HWSCAN_INT_FIELD", "123")
	t.Setenv("HWSCAN_SLICE_FIELD", "a, b,,c")
	t.Setenv("HWSCAN_NESTED_VALUE", "env nested")

	config := &TestConfig{}
	require.NoError(t, LoadConfig(config, nil))

	assert.Equal(t, "env string", config.StringField)
	assert.True(t, config.BoolField)
	assert.Equal(t, 123, config.IntField)
	assert.Equal(t, []string{"a", "b", "c"}, config.SliceField)
	assert.Equal(t, "env nested", config.NestedString)
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `
[test]
string_field = "from file"
int_field = 1
slice_field = ["file"]
`)
	t.Setenv("HWSCAN_STRING_FIELD", "from env")
	t.Setenv("HWSCAN_INT_FIELD", "2")

	cmd := &cobra.Command{Use: "test"}
	config := &TestConfig{Config: path}
	cmd.Flags().IntVar(&config.IntField, "int-field", 0, "")
	require.NoError(t, cmd.Flags().Set("int-field", "3"))

	require.NoError(t, LoadConfig(config, cmd))

	assert.Equal(t, "from env", config.StringField, "env overrides file")
	assert.Equal(t, 3, config.IntField, "flag overrides env")
	assert.Equal(t, []string{"file"}, config.SliceField, "file applies when nothing else is set")
}

func TestLoadScanOptions(t *testing.T) {
	path := writeConfig(t, `
[scan]
drivers = ["vaapi"]
codecs = ["h264", "hevc"]

[logging]
level = "warn"
`)
	t.Setenv("HWSCAN_CONFIG", path)
	t.Setenv("HWSCAN_DRIVERS", "nvidia,v4l2m2m")
	t.Setenv("HWSCAN_SIMULATE", "/etc/hwscan/sim.toml")

	opts, err := LoadScanOptions()
	require.NoError(t, err)

	assert.Equal(t, path, opts.Config)
	assert.Equal(t, []string{"nvidia", "v4l2m2m"}, opts.Drivers)
	assert.Equal(t, []string{"h264", "hevc"}, opts.Codecs)
	assert.Equal(t, "/etc/hwscan/sim.toml", opts.Simulate)
	assert.Equal(t, "warn", opts.LoggingLevel)
}

func TestLoadScanOptionsWithoutEnvironment(t *testing.T) {
	t.Setenv("HWSCAN_CONFIG", "")
	t.Setenv("HWSCAN_DRIVERS", "")

	opts, err := LoadScanOptions()
	require.NoError(t, err)
	assert.Empty(t, opts.Drivers)
	assert.Empty(t, opts.Simulate)
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{"value": "nested_value"},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"level1.nonexistent", nil},
		{"root.deeper", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, getNestedValue(data, tt.path), tt.path)
	}
}

func TestSetFieldValue(t *testing.T) {
	type TestStruct struct {
		StringField string
		BoolField   bool
		IntField    int
		SliceField  []string
	}

	s := &TestStruct{}
	v := reflect.ValueOf(s).Elem()

	setFieldValue(v.FieldByName("StringField"), "test string")
	setFieldValue(v.FieldByName("BoolField"), true)
	setFieldValue(v.FieldByName("IntField"), int64(42))
	setFieldValue(v.FieldByName("SliceField"), []any{"a", "b", "c"})

	assert.Equal(t, TestStruct{"test string", true, 42, []string{"a", "b", "c"}}, *s)

	// A scalar string for a list key is read as a comma list.
	setFieldValue(v.FieldByName("SliceField"), "hevc, av1")
	assert.Equal(t, []string{"hevc", "av1"}, s.SliceField)

	// A TOML array for a string field becomes a comma list.
	setFieldValue(v.FieldByName("StringField"), []any{"vaapi", "nvidia"})
	assert.Equal(t, "vaapi,nvidia", s.StringField)
}

func TestSetFieldValueFromString(t *testing.T) {
	type TestStruct struct {
		StringField string
		BoolField   bool
		IntField    int
		SliceField  []string
	}

	s := &TestStruct{}
	v := reflect.ValueOf(s).Elem()

	setFieldValueFromString(v.FieldByName("StringField"), "test string")
	setFieldValueFromString(v.FieldByName("BoolField"), "true")
	setFieldValueFromString(v.FieldByName("IntField"), "123")
	setFieldValueFromString(v.FieldByName("SliceField"), " a , b , c ")

	assert.Equal(t, TestStruct{"test string", true, 123, []string{"a", "b", "c"}}, *s)

	setFieldValueFromString(v.FieldByName("IntField"), "not a number")
	assert.Equal(t, 123, s.IntField, "invalid ints are ignored")
}

func TestLoadConfigMissingFile(t *testing.T) {
	config := &TestConfig{Config: filepath.Join(t.TempDir(), "nonexistent.toml")}
	assert.NoError(t, LoadConfig(config, nil))
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeConfig(t, "[test\ninvalid toml syntax\n")
	assert.Error(t, LoadConfig(&TestConfig{Config: path}, nil))
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "debug"
format = "json"
output = "stderr"
vaapi = "warn"
api = "error"
`)

	cfg := LoadLoggingConfig(path)
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.Equal(t, map[string]string{"vaapi": "warn", "api": "error"}, cfg.Modules)
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	cfg := LoadLoggingConfig("")
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.Empty(t, cfg.Modules)

	_, err := LoadLoggingConfigE(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
