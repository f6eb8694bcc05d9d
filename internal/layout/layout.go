// =============================================================================
// Inventory Count Automation - Spreadsheet Layouts
// =============================================================================
//
// A layout describes one spreadsheet dialect: where the headers are, where
// the data starts, which column holds the lookup key, which column receives
// the counted quantity, and which barcodes are accepted.
//
// LIFECYCLE:
//   Options (raw, from config.yaml or CLI flags)
//     -> New()  validates every field and compiles the barcode rule
//     -> *Spec  immutable; handed to every core operation
//
// Editing a layout means building new Options and calling New again. A Spec
// is never modified after construction.
//
// =============================================================================

package layout

import (
	"strings"

	"github.com/ginjaninja78/inventory-count-automation/internal/types"
	"github.com/ginjaninja78/inventory-count-automation/internal/validation"
	"github.com/xuri/excelize/v2"
)

// DefaultSpreadsheetFile is the workbook name used when a layout names none.
const DefaultSpreadsheetFile = "Planilha de Inventário Base.xlsx"

// =============================================================================
// OPTIONS
// =============================================================================

// Options is the raw, editable form of a layout as stored in config.yaml.
type Options struct {
	// Description is shown next to the layout name in listings.
	Description string `mapstructure:"description" yaml:"description"`

	// SpreadsheetFile is the workbook file name, relative to the spreadsheet
	// directory of the application config.
	SpreadsheetFile string `mapstructure:"spreadsheet_file" yaml:"spreadsheet_file"`

	// Sheet selects a worksheet by name. Empty means the workbook's active sheet.
	Sheet string `mapstructure:"sheet" yaml:"sheet,omitempty"`

	// HeaderRow is the 1-based row holding the column headers.
	HeaderRow int `mapstructure:"header_row" yaml:"header_row"`

	// DataStartRow is the first 1-based data row. Must be greater than HeaderRow.
	DataStartRow int `mapstructure:"data_start_row" yaml:"data_start_row"`

	// KeyColumn holds the identifier matched against scanned barcodes.
	KeyColumn string `mapstructure:"key_column" yaml:"key_column"`

	// TargetColumn receives the counted quantity.
	TargetColumn string `mapstructure:"target_column" yaml:"target_column"`

	// Secondary columns. Informational only.
	EANColumn         string `mapstructure:"ean_column" yaml:"ean_column,omitempty"`
	SystemCodeColumn  string `mapstructure:"system_code_column" yaml:"system_code_column,omitempty"`
	XMLCodeColumn     string `mapstructure:"xml_code_column" yaml:"xml_code_column,omitempty"`
	DescriptionColumn string `mapstructure:"description_column" yaml:"description_column,omitempty"`
	SKUColumn         string `mapstructure:"sku_column" yaml:"sku_column,omitempty"`

	// Barcode rule. See validation.Rule.
	BarcodePrefix  string `mapstructure:"barcode_prefix" yaml:"barcode_prefix"`
	BarcodeSuffix  string `mapstructure:"barcode_suffix" yaml:"barcode_suffix"`
	BarcodePattern string `mapstructure:"barcode_pattern" yaml:"barcode_pattern,omitempty"`

	// StrictKeys makes a repeated key in the key column a fatal error
	// instead of letting the last row win.
	StrictKeys bool `mapstructure:"strict_keys" yaml:"strict_keys,omitempty"`
}

// DefaultOptions returns the layout used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		SpreadsheetFile: DefaultSpreadsheetFile,
		HeaderRow:       1,
		DataStartRow:    2,
		KeyColumn:       "A",
		TargetColumn:    "Z",
	}
}

// Rule returns the barcode rule described by the options.
func (o Options) Rule() validation.Rule {
	return validation.Rule{
		Prefix:  o.BarcodePrefix,
		Suffix:  o.BarcodeSuffix,
		Pattern: o.BarcodePattern,
	}
}

// normalize trims every text field and uppercases column names.
func (o Options) normalize() Options {
	col := func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

	o.Description = strings.TrimSpace(o.Description)
	o.SpreadsheetFile = strings.TrimSpace(o.SpreadsheetFile)
	o.Sheet = strings.TrimSpace(o.Sheet)
	o.KeyColumn = col(o.KeyColumn)
	o.TargetColumn = col(o.TargetColumn)
	o.EANColumn = col(o.EANColumn)
	o.SystemCodeColumn = col(o.SystemCodeColumn)
	o.XMLCodeColumn = col(o.XMLCodeColumn)
	o.DescriptionColumn = col(o.DescriptionColumn)
	o.SKUColumn = col(o.SKUColumn)
	o.BarcodePrefix = strings.TrimSpace(o.BarcodePrefix)
	o.BarcodeSuffix = strings.TrimSpace(o.BarcodeSuffix)
	return o
}

// =============================================================================
// SPEC
// =============================================================================

// Spec is a validated, immutable layout.
type Spec struct {
	name    string
	opts    Options
	matcher *validation.Matcher
}

// New validates the options and compiles the barcode rule.
//
// RETURNS:
//   - The immutable Spec.
//   - A *types.ConfigError describing the first invalid field.
//
// VALIDATION:
//   - header_row >= 1
//   - data_start_row > header_row
//   - key_column and target_column are non-empty spreadsheet column names
//   - secondary columns, when set, are valid column names
//   - barcode_pattern, when set, is a valid regular expression
func New(name string, opts Options) (*Spec, error) {
	opts = opts.normalize()

	if opts.HeaderRow < 1 {
		return nil, types.NewConfigError("header_row", "must be at least 1 (got %d)", opts.HeaderRow)
	}
	if opts.DataStartRow <= opts.HeaderRow {
		return nil, types.NewConfigError("data_start_row",
			"must be greater than header_row (got %d, header_row %d)", opts.DataStartRow, opts.HeaderRow)
	}
	if opts.KeyColumn == "" {
		return nil, types.NewConfigError("key_column", "must not be empty")
	}
	if opts.TargetColumn == "" {
		return nil, types.NewConfigError("target_column", "must not be empty")
	}

	columns := []struct {
		field, value string
	}{
		{"key_column", opts.KeyColumn},
		{"target_column", opts.TargetColumn},
		{"ean_column", opts.EANColumn},
		{"system_code_column", opts.SystemCodeColumn},
		{"xml_code_column", opts.XMLCodeColumn},
		{"description_column", opts.DescriptionColumn},
		{"sku_column", opts.SKUColumn},
	}
	for _, c := range columns {
		if c.value == "" {
			continue
		}
		if _, err := excelize.ColumnNameToNumber(c.value); err != nil {
			return nil, &types.ConfigError{Field: c.field, Message: "not a valid column name", Err: err}
		}
	}

	matcher, err := validation.Compile(opts.Rule())
	if err != nil {
		return nil, err
	}

	return &Spec{
		name:    strings.ToLower(strings.TrimSpace(name)),
		opts:    opts,
		matcher: matcher,
	}, nil
}

// Name returns the layout name (lowercase).
func (s *Spec) Name() string { return s.name }

// Description returns the display description.
func (s *Spec) Description() string { return s.opts.Description }

// SpreadsheetFile returns the configured workbook file name.
func (s *Spec) SpreadsheetFile() string {
	if s.opts.SpreadsheetFile == "" {
		return DefaultSpreadsheetFile
	}
	return s.opts.SpreadsheetFile
}

// Sheet returns the configured worksheet name, or "" for the active sheet.
func (s *Spec) Sheet() string { return s.opts.Sheet }

// HeaderRow returns the 1-based header row.
func (s *Spec) HeaderRow() int { return s.opts.HeaderRow }

// DataStartRow returns the first 1-based data row.
func (s *Spec) DataStartRow() int { return s.opts.DataStartRow }

// KeyColumn returns the uppercase key column name.
func (s *Spec) KeyColumn() string { return s.opts.KeyColumn }

// TargetColumn returns the uppercase quantity column name.
func (s *Spec) TargetColumn() string { return s.opts.TargetColumn }

// StrictKeys reports whether duplicate keys are fatal.
func (s *Spec) StrictKeys() bool { return s.opts.StrictKeys }

// Matcher returns the compiled barcode rule.
func (s *Spec) Matcher() *validation.Matcher { return s.matcher }

// Options returns a copy of the normalized options.
func (s *Spec) Options() Options { return s.opts }

// WithStrictKeys returns a copy of the Spec with the strict-keys switch set.
func (s *Spec) WithStrictKeys(strict bool) *Spec {
	c := *s
	c.opts.StrictKeys = strict
	return &c
}
