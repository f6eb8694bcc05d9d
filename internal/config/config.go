// =============================================================================
// Inventory Count Automation - Configuration Module
// =============================================================================
//
// This module loads, validates, edits and saves the application configuration.
//
// CONFIGURATION SOURCES (lowest to highest precedence):
//   1. `default` struct tags on AppConfig
//   2. config.yaml (optional; a missing file yields the defaults)
//   3. .env file, loaded into the process environment
//   4. INVENTORY_* environment variables (e.g. INVENTORY_INPUT_DIR,
//      INVENTORY_LOG_LEVEL)
//
// LAYOUTS:
//   The file holds any number of named layouts and the name of the active
//   one. Layout names are case-insensitive and stored lowercase. Every edit
//   goes through layout.New, so an invalid layout is never stored.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/ginjaninja78/inventory-count-automation/internal/layout"
	"github.com/ginjaninja78/inventory-count-automation/internal/logger"
	"github.com/ginjaninja78/inventory-count-automation/internal/types"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultLayoutName is the layout created when none is configured.
const DefaultLayoutName = "default"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "INVENTORY"

// =============================================================================
// APPLICATION CONFIGURATION
// =============================================================================

// AppConfig holds the global application configuration.
type AppConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for *.txt count files.
	InputDir string `mapstructure:"input_dir" yaml:"input_dir" default:"./data/txt"`

	// SpreadsheetDir holds the reference workbooks named by the layouts.
	SpreadsheetDir string `mapstructure:"spreadsheet_dir" yaml:"spreadsheet_dir" default:"./data/planilhas"`

	// OutputDir receives the updated workbook. Empty saves the workbook in place.
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// OutputNameFormat names the updated workbook inside OutputDir.
	// Placeholders: {original}, {layout}, {date}, {timestamp}, {uuid}.
	OutputNameFormat string `mapstructure:"output_name_format" yaml:"output_name_format" default:"{original}_{timestamp}.xlsx"`

	// ArchiveDir receives processed count files when archiving is enabled.
	ArchiveDir string `mapstructure:"archive_dir" yaml:"archive_dir" default:"./data/txt/processados"`

	// ReportDir receives a plain-text summary of each run. Empty disables it.
	ReportDir string `mapstructure:"report_dir" yaml:"report_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	Log logger.Config `mapstructure:"log" yaml:"log"`

	// =========================================================================
	// LAYOUTS
	// =========================================================================

	// ActiveLayout names the layout used by `process` when none is given.
	ActiveLayout string `mapstructure:"active_layout" yaml:"active_layout" default:"default"`

	// Layouts maps lowercase layout names to their options.
	Layouts map[string]layout.Options `mapstructure:"layouts" yaml:"layouts"`
}

// Default returns the configuration used when no file exists.
func Default() *AppConfig {
	cfg := &AppConfig{}
	setStructDefaults(reflect.ValueOf(cfg).Elem())
	cfg.Layouts = map[string]layout.Options{DefaultLayoutName: layout.DefaultOptions()}
	return cfg
}

// =============================================================================
// LOADING AND SAVING
// =============================================================================

// Load reads the configuration file at path.
//
// PARAMETERS:
//   - path: The YAML configuration file. It may not exist.
//
// RETURNS:
//   - The validated configuration.
//   - An error if the file cannot be parsed or a layout is invalid.
func Load(path string) (*AppConfig, error) {
	return load(path, true)
}

// LoadFile reads the configuration file at path without .env or
// INVENTORY_* overrides. Commands that write the file back use it, so
// overrides meant for one run never end up in config.yaml.
func LoadFile(path string) (*AppConfig, error) {
	return load(path, false)
}

func load(path string, withEnv bool) (*AppConfig, error) {
	v := viper.New()
	bindValues(v, AppConfig{}, "")

	if withEnv {
		// Ignore error if .env doesn't exist.
		_ = godotenv.Load()

		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to path as YAML.
func (c *AppConfig) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyDefaults fills unset layout fields and guarantees a default layout.
func applyDefaults(cfg *AppConfig) {
	if len(cfg.Layouts) == 0 {
		cfg.Layouts = map[string]layout.Options{DefaultLayoutName: layout.DefaultOptions()}
	}

	normalized := make(map[string]layout.Options, len(cfg.Layouts))
	for name, opts := range cfg.Layouts {
		normalized[normalizeName(name)] = applyLayoutDefaults(opts)
	}
	cfg.Layouts = normalized

	cfg.ActiveLayout = normalizeName(cfg.ActiveLayout)
	if cfg.ActiveLayout == "" {
		cfg.ActiveLayout = DefaultLayoutName
	}
}

// applyLayoutDefaults treats zero values as "not set".
func applyLayoutDefaults(opts layout.Options) layout.Options {
	def := layout.DefaultOptions()
	if opts.SpreadsheetFile == "" {
		opts.SpreadsheetFile = def.SpreadsheetFile
	}
	if opts.HeaderRow == 0 {
		opts.HeaderRow = def.HeaderRow
	}
	if opts.DataStartRow == 0 {
		opts.DataStartRow = opts.HeaderRow + 1
	}
	if strings.TrimSpace(opts.KeyColumn) == "" {
		opts.KeyColumn = def.KeyColumn
	}
	if strings.TrimSpace(opts.TargetColumn) == "" {
		opts.TargetColumn = def.TargetColumn
	}
	return opts
}

// Validate builds every layout and checks that the active one exists.
func (c *AppConfig) Validate() error {
	for _, name := range c.LayoutNames() {
		if _, err := layout.New(name, c.Layouts[name]); err != nil {
			return fmt.Errorf("layout %q: %w", name, err)
		}
	}
	if _, ok := c.Layouts[c.ActiveLayout]; !ok {
		return c.unknownLayout("active_layout", c.ActiveLayout)
	}
	return nil
}

// =============================================================================
// LAYOUT ACCESS
// =============================================================================

// LayoutNames returns the layout names in sorted order.
func (c *AppConfig) LayoutNames() []string {
	names := make([]string, 0, len(c.Layouts))
	for name := range c.Layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Layout builds the named layout.
func (c *AppConfig) Layout(name string) (*layout.Spec, error) {
	name = normalizeName(name)
	opts, ok := c.Layouts[name]
	if !ok {
		return nil, c.unknownLayout("layout", name)
	}
	return layout.New(name, opts)
}

// Active builds the active layout.
func (c *AppConfig) Active() (*layout.Spec, error) {
	return c.Layout(c.ActiveLayout)
}

// SpreadsheetPath returns the workbook path for a layout.
func (c *AppConfig) SpreadsheetPath(spec *layout.Spec) string {
	return filepath.Join(c.SpreadsheetDir, spec.SpreadsheetFile())
}

// =============================================================================
// LAYOUT EDITING
// =============================================================================

// AddLayout stores a new layout. The name must not exist yet.
func (c *AppConfig) AddLayout(name string, opts layout.Options) (*layout.Spec, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, types.NewConfigError("layout", "name must not be empty")
	}
	if _, exists := c.Layouts[name]; exists {
		return nil, types.NewConfigError("layout", "%q already exists; choose another name or remove it first", name)
	}
	return c.store(name, opts)
}

// UpdateLayout replaces the options of an existing layout.
func (c *AppConfig) UpdateLayout(name string, opts layout.Options) (*layout.Spec, error) {
	name = normalizeName(name)
	if _, exists := c.Layouts[name]; !exists {
		return nil, c.unknownLayout("layout", name)
	}
	return c.store(name, opts)
}

// RemoveLayout deletes a layout. The active layout cannot be removed.
func (c *AppConfig) RemoveLayout(name string) error {
	name = normalizeName(name)
	if name == c.ActiveLayout {
		return types.NewConfigError("layout", "cannot remove the active layout %q; select another layout first", name)
	}
	if _, exists := c.Layouts[name]; !exists {
		return c.unknownLayout("layout", name)
	}
	delete(c.Layouts, name)
	return nil
}

// SetActive selects the active layout.
func (c *AppConfig) SetActive(name string) error {
	name = normalizeName(name)
	if _, exists := c.Layouts[name]; !exists {
		return c.unknownLayout("active_layout", name)
	}
	c.ActiveLayout = name
	return nil
}

// store validates opts and saves the normalized form.
func (c *AppConfig) store(name string, opts layout.Options) (*layout.Spec, error) {
	spec, err := layout.New(name, opts)
	if err != nil {
		return nil, err
	}
	if c.Layouts == nil {
		c.Layouts = make(map[string]layout.Options)
	}
	c.Layouts[name] = spec.Options()
	return spec, nil
}

func (c *AppConfig) unknownLayout(field, name string) error {
	return types.NewConfigError(field, "layout %q not found; available: %s",
		name, strings.Join(c.LayoutNames(), ", "))
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// =============================================================================
// DEFAULTS FROM STRUCT TAGS
// =============================================================================

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
		case reflect.Map:
			// Layouts are free-form; they get defaults in applyDefaults.
		default:
			// Always set default (even if empty) to register the key for AutomaticEnv
			v.SetDefault(key, field.Tag.Get("default"))
		}
	}
}

// setStructDefaults copies `default` tags into string fields.
func setStructDefaults(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)
		switch field.Type.Kind() {
		case reflect.Struct:
			setStructDefaults(fv)
		case reflect.String:
			fv.SetString(field.Tag.Get("default"))
		}
	}
}
