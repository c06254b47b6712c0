package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/hwscan/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "HWSCAN_"

// ScanOptions are the settings shared by the shared library and the CLI
// scan commands. The library fills them from the environment only.
type ScanOptions struct {
	Config        string   `env:"CONFIG"`
	Drivers       []string `toml:"scan.drivers" env:"DRIVERS"`
	Codecs        []string `toml:"scan.codecs" env:"CODECS"`
	Simulate      string   `toml:"scan.simulate" env:"SIMULATE"`
	LoggingLevel  string   `toml:"logging.level" env:"LOG_LEVEL"`
	LoggingFormat string   `toml:"logging.format" env:"LOG_FORMAT"`
}

// LoadScanOptions resolves ScanOptions from HWSCAN_CONFIG and the
// environment.
func LoadScanOptions() (ScanOptions, error) {
	var opts ScanOptions
	if err := LoadConfig(&opts, nil); err != nil {
		return ScanOptions{}, err
	}
	return opts, nil
}

// LoadConfig loads configuration with proper precedence: CLI args > env vars > config file.
// If cmd is provided, flags explicitly set via CLI will not be overwritten.
// A Config field tagged with env is itself resolved from the environment
// when empty, so the file location can come from HWSCAN_CONFIG.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	changedFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changedFlags[f.Name] = true
			}
		})
	}

	if field, ok := t.FieldByName("Config"); ok {
		configField := v.FieldByIndex(field.Index)
		if configField.String() == "" {
			if envKey := field.Tag.Get("env"); envKey != "" {
				configField.SetString(os.Getenv(EnvPrefix + envKey))
			}
		}
		if err := applyFile(v, configField.String(), changedFlags); err != nil {
			return err
		}
	}

	for i := 0; i < v.NumField(); i++ {
		fieldType := t.Field(i)
		if fieldType.Name == "Config" || changedFlags[fieldNameToFlag(fieldType.Name)] {
			continue
		}

		if envKey := fieldType.Tag.Get("env"); envKey != "" {
			if envValue := os.Getenv(EnvPrefix + envKey); envValue != "" {
				setFieldValueFromString(v.Field(i), envValue)
			}
		}
	}

	return nil
}

// applyFile copies toml-tagged values from the file at path. A missing file
// is not an error.
func applyFile(v reflect.Value, path string, changedFlags map[string]bool) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var config map[string]any
	if err := toml.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("failed to parse TOML config %s: %w", path, err)
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fieldType := t.Field(i)
		if changedFlags[fieldNameToFlag(fieldType.Name)] {
			continue
		}
		if tomlPath := fieldType.Tag.Get("toml"); tomlPath != "" {
			if value := getNestedValue(config, tomlPath); value != nil {
				setFieldValue(v.Field(i), value)
			}
		}
	}
	return nil
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LoggingLevel" -> "logging-level", "Port" -> "port".
func fieldNameToFlag(fieldName string) string {
	var result []rune
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '-')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

// setFieldValue sets a field value using reflection.
func setFieldValue(field reflect.Value, value any) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		switch v := value.(type) {
		case string:
			field.SetString(v)
		case []any:
			// Lists land in string flags as comma lists.
			items := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					items = append(items, s)
				}
			}
			field.SetString(strings.Join(items, ","))
		}
	case reflect.Bool:
		if b, ok := value.(bool); ok {
			field.SetBool(b)
		}
	case reflect.Int:
		switch i := value.(type) {
		case int64:
			field.SetInt(i)
		case int:
			field.SetInt(int64(i))
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return
		}
		switch arr := value.(type) {
		case []any:
			slice := make([]string, 0, len(arr))
			for _, v := range arr {
				if s, ok := v.(string); ok {
					slice = append(slice, s)
				}
			}
			field.Set(reflect.ValueOf(slice))
		case string:
			field.Set(reflect.ValueOf(SplitList(arr)))
		}
	}
}

// setFieldValueFromString sets a field value from string (for env vars).
func setFieldValueFromString(field reflect.Value, value string) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		if b, err := strconv.ParseBool(value); err == nil {
			field.SetBool(b)
		}
	case reflect.Int:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			field.SetInt(i)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			field.Set(reflect.ValueOf(SplitList(value)))
		}
	}
}

// SplitList parses a comma-separated list, dropping empty items.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadLoggingConfig loads logging configuration from a TOML config file.
// Returns default config if file doesn't exist or can't be parsed.
func LoadLoggingConfig(configPath string) logging.Config {
	cfg := logging.Config{
		Level:   "info",
		Format:  "text",
		Modules: make(map[string]string),
	}

	if configPath == "" {
		return cfg
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg
	}

	var rawConfig struct {
		Logging map[string]string `toml:"logging"`
	}
	if err := toml.Unmarshal(data, &rawConfig); err != nil {
		return cfg
	}

	// level, format and output are reserved; every other key is a module.
	for key, value := range rawConfig.Logging {
		switch key {
		case "level":
			cfg.Level = value
		case "format":
			cfg.Format = value
		case "output":
			cfg.Output = value
		default:
			cfg.Modules[key] = value
		}
	}

	return cfg
}

// LoadLoggingConfigE is LoadLoggingConfig for the config watcher: it reports
// unreadable or malformed files instead of falling back to defaults.
func LoadLoggingConfigE(configPath string) (logging.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return logging.Config{}, err
	}
	var probe map[string]any
	if err := toml.Unmarshal(data, &probe); err != nil {
		return logging.Config{}, fmt.Errorf("failed to parse TOML config %s: %w", configPath, err)
	}
	return LoadLoggingConfig(configPath), nil
}
