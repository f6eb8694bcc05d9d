// =============================================================================
// Inventory Count Automation - Layout Commands
// =============================================================================
//
// This file defines the 'layout' command group, which manages the named
// spreadsheet layouts stored in the configuration file.
//
// COMMAND USAGE:
//   inventory layout list
//   inventory layout show [name]
//   inventory layout add <name> [layout flags]
//   inventory layout edit <name> [layout flags]
//   inventory layout remove <name>
//   inventory layout select <name>
//
// RULES:
//   - add starts from the default layout and applies the given flags
//   - edit applies only the flags that were given
//   - the active layout cannot be removed
//   - every change is validated before the configuration file is written
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/ginjaninja78/inventory-count-automation/internal/config"
	"github.com/ginjaninja78/inventory-count-automation/internal/layout"
	"github.com/ginjaninja78/inventory-count-automation/internal/report"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Manage spreadsheet layouts",
	Long: `A layout describes one spreadsheet dialect: header and data rows, the key
column matched against barcodes, the quantity column, and the barcode rule.`,
}

var layoutListCmd = &cobra.Command{
	Use:   "list",
	Short: "List layouts (the active one is marked with *)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		report.NewPrinter(cmd.OutOrStdout()).LayoutList(cfg.LayoutNames(), cfg.ActiveLayout, func(name string) string {
			return cfg.Layouts[name].Description
		})
		return nil
	},
}

var layoutShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a layout (default: the active one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		name := cfg.ActiveLayout
		if len(args) == 1 {
			name = args[0]
		}
		spec, err := cfg.Layout(name)
		if err != nil {
			return err
		}
		report.NewPrinter(cmd.OutOrStdout()).LayoutDetail(spec, spec.Name() == cfg.ActiveLayout)
		return nil
	},
}

var layoutAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a layout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editLayouts(cmd, func(cfg *config.AppConfig) (string, error) {
			opts, err := applyLayoutFlags(cmd, layout.DefaultOptions())
			if err != nil {
				return "", err
			}
			spec, err := cfg.AddLayout(args[0], opts)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Layout %q added.", spec.Name()), nil
		})
	},
}

var layoutEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Change settings of a layout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editLayouts(cmd, func(cfg *config.AppConfig) (string, error) {
			current, err := cfg.Layout(args[0])
			if err != nil {
				return "", err
			}
			opts, err := applyLayoutFlags(cmd, current.Options())
			if err != nil {
				return "", err
			}
			spec, err := cfg.UpdateLayout(args[0], opts)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Layout %q updated.", spec.Name()), nil
		})
	},
}

var layoutRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a layout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editLayouts(cmd, func(cfg *config.AppConfig) (string, error) {
			if err := cfg.RemoveLayout(args[0]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Layout %q removed.", args[0]), nil
		})
	},
}

var layoutSelectCmd = &cobra.Command{
	Use:   "select <name>",
	Short: "Make a layout the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editLayouts(cmd, func(cfg *config.AppConfig) (string, error) {
			if err := cfg.SetActive(args[0]); err != nil {
				return "", err
			}
			return fmt.Sprintf("Active layout: %q.", cfg.ActiveLayout), nil
		})
	},
}

// =============================================================================
// HELPERS
// =============================================================================

// editLayouts loads the configuration file, applies fn and saves the result.
// Environment overrides are not applied, so they are never persisted.
func editLayouts(cmd *cobra.Command, fn func(*config.AppConfig) (string, error)) error {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	msg, err := fn(cfg)
	if err != nil {
		return err
	}

	if err := cfg.Save(cfgFile); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}

// layoutFlag names
const (
	flagDescription       = "description"
	flagSpreadsheetFile   = "spreadsheet-file"
	flagSheet             = "sheet"
	flagHeaderRow         = "header-row"
	flagDataStartRow      = "data-start-row"
	flagKeyColumn         = "key-column"
	flagTargetColumn      = "target-column"
	flagEANColumn         = "ean-column"
	flagSystemCodeColumn  = "system-code-column"
	flagXMLCodeColumn     = "xml-code-column"
	flagDescriptionColumn = "description-column"
	flagSKUColumn         = "sku-column"
	flagBarcodePrefix     = "barcode-prefix"
	flagBarcodeSuffix     = "barcode-suffix"
	flagBarcodePattern    = "barcode-pattern"
	flagStrictKeys        = "strict-keys"
)

// addLayoutFlags registers the layout setting flags on cmd.
func addLayoutFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(flagDescription, "", "Description shown in listings")
	f.String(flagSpreadsheetFile, "", "Workbook file name inside the spreadsheet directory")
	f.String(flagSheet, "", "Worksheet name (empty: the active sheet)")
	f.Int(flagHeaderRow, 0, "Row holding the column headers")
	f.Int(flagDataStartRow, 0, "First data row (must be after the header row)")
	f.String(flagKeyColumn, "", "Column holding the key matched against barcodes")
	f.String(flagTargetColumn, "", "Column receiving the counted quantity")
	f.String(flagEANColumn, "", "EAN column (informational)")
	f.String(flagSystemCodeColumn, "", "System code column (informational)")
	f.String(flagXMLCodeColumn, "", "XML code column (informational)")
	f.String(flagDescriptionColumn, "", "Description column (informational)")
	f.String(flagSKUColumn, "", "SKU column (informational)")
	f.String(flagBarcodePrefix, "", "Required barcode prefix, e.g. MCS000")
	f.String(flagBarcodeSuffix, "", "Required barcode suffix, e.g. BR")
	f.String(flagBarcodePattern, "", "Regular expression replacing prefix/suffix")
	f.Bool(flagStrictKeys, false, "Fail when a key appears on more than one row")
}

// applyLayoutFlags copies every flag that was set on the command line into o.
func applyLayoutFlags(cmd *cobra.Command, o layout.Options) (layout.Options, error) {
	f := cmd.Flags()

	texts := []struct {
		name string
		dst  *string
	}{
		{flagDescription, &o.Description},
		{flagSpreadsheetFile, &o.SpreadsheetFile},
		{flagSheet, &o.Sheet},
		{flagKeyColumn, &o.KeyColumn},
		{flagTargetColumn, &o.TargetColumn},
		{flagEANColumn, &o.EANColumn},
		{flagSystemCodeColumn, &o.SystemCodeColumn},
		{flagXMLCodeColumn, &o.XMLCodeColumn},
		{flagDescriptionColumn, &o.DescriptionColumn},
		{flagSKUColumn, &o.SKUColumn},
		{flagBarcodePrefix, &o.BarcodePrefix},
		{flagBarcodeSuffix, &o.BarcodeSuffix},
		{flagBarcodePattern, &o.BarcodePattern},
	}
	for _, s := range texts {
		if !f.Changed(s.name) {
			continue
		}
		v, err := f.GetString(s.name)
		if err != nil {
			return o, err
		}
		*s.dst = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{flagHeaderRow, &o.HeaderRow},
		{flagDataStartRow, &o.DataStartRow},
	}
	for _, i := range ints {
		if !f.Changed(i.name) {
			continue
		}
		v, err := f.GetInt(i.name)
		if err != nil {
			return o, err
		}
		*i.dst = v
	}

	if f.Changed(flagStrictKeys) {
		v, err := f.GetBool(flagStrictKeys)
		if err != nil {
			return o, err
		}
		o.StrictKeys = v
	}

	return o, nil
}

func init() {
	rootCmd.AddCommand(layoutCmd)

	addLayoutFlags(layoutAddCmd)
	addLayoutFlags(layoutEditCmd)

	layoutCmd.AddCommand(
		layoutListCmd,
		layoutShowCmd,
		layoutAddCmd,
		layoutEditCmd,
		layoutRemoveCmd,
		layoutSelectCmd,
	)
}
