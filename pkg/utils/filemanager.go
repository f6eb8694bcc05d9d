// =============================================================================
// Inventory Count Automation - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for a reconciliation run:
//   - Count file discovery
//   - Count file archival (moving processed files)
//   - Output workbook naming
//   - Run summary log generation
//   - Directory management
//
// ARCHIVAL STRATEGY:
//   - Count files are moved to the archive directory only after the workbook
//     was saved successfully
//   - Dry runs and failed runs leave every count file in place
//   - Archived names never overwrite an earlier archive of the same file
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ginjaninja78/inventory-count-automation/internal/types"
	"github.com/google/uuid"
)

// CountFileExt is the extension of scanner count files.
const CountFileExt = ".txt"

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a run.
type FileManager struct {
	// InputDir is the directory scanned for count files.
	InputDir string

	// OutputDir receives the updated workbook. Empty means in place.
	OutputDir string

	// ArchiveDir receives processed count files.
	ArchiveDir string

	// ReportDir receives run summary logs. Empty disables them.
	ReportDir string

	// UseDateSubdirs creates date-based subdirectories in the archive.
	// Example: processados/2024/01/15/contagem.txt
	UseDateSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, archiveDir, reportDir string) *FileManager {
	return &FileManager{
		InputDir:       inputDir,
		OutputDir:      outputDir,
		ArchiveDir:     archiveDir,
		ReportDir:      reportDir,
		UseDateSubdirs: true,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the configured output directories.
// The input directory is never created; a missing one is reported by
// DiscoverCountFiles.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir, fm.ReportDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverCountFiles lists the count files of the input directory, sorted
// by file name. Subdirectories are not scanned.
//
// RETURNS:
//   - The file paths.
//   - *types.SourceNotFoundError when the directory is missing or holds no
//     count files.
func (fm *FileManager) DiscoverCountFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &types.SourceNotFoundError{Kind: "count directory", Path: fm.InputDir}
		}
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), CountFileExt) {
			continue
		}
		files = append(files, filepath.Join(fm.InputDir, e.Name()))
	}

	if len(files) == 0 {
		return nil, &types.SourceNotFoundError{
			Kind:   "count files",
			Path:   fm.InputDir,
			Detail: "no *" + CountFileExt + " files",
		}
	}

	sort.Strings(files)
	return files, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a count file to the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" {
		return "", fmt.Errorf("archive directory is not configured")
	}

	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	// Move the file.
	if err := os.Rename(filePath, archivePath); err != nil {
		// If rename fails (e.g., cross-device), try copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs a free archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	dir := fm.ArchiveDir
	if fm.UseDateSubdirs {
		now := time.Now()
		dir = filepath.Join(
			dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	name := filepath.Base(filePath)
	path := filepath.Join(dir, name)
	if !FileExists(path) {
		return path
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, time.Now().Format("150405.000000000"), ext))
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output workbook name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {original}  - Source workbook name (without extension)
//               {layout}    - Layout name
//   - params: A map of placeholder values. Keys override the built-ins.
//
// EXAMPLE:
//   format: "{layout}_{date}_{original}"
//   params: {"layout": "loja", "original": "estoque"}
//   output: "loja_20240115_estoque.xlsx"
func GenerateOutputFileName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}

	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Ensure .xlsx extension.
	if !strings.HasSuffix(strings.ToLower(result), ".xlsx") {
		result += ".xlsx"
	}

	return result
}

// OutputPath returns where the updated workbook goes. It returns "" when
// OutputDir is empty, meaning the source workbook is saved in place.
func (fm *FileManager) OutputPath(format, spreadsheet, layoutName, runID string) string {
	if fm.OutputDir == "" {
		return ""
	}
	if format == "" {
		format = "{original}"
	}

	original := strings.TrimSuffix(filepath.Base(spreadsheet), filepath.Ext(spreadsheet))
	name := GenerateOutputFileName(format, map[string]string{
		"original": original,
		"layout":   layoutName,
		"uuid":     runID,
	})
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// ReportPath names a report file of the given kind for one run:
// inventory_<kind>_<timestamp>[_<short run id>].txt inside dir.
func ReportPath(dir, kind string, start time.Time, runID string) string {
	name := fmt.Sprintf("inventory_%s_%s.txt", kind, start.Format("20060102_150405"))
	if runID != "" {
		name = fmt.Sprintf("inventory_%s_%s_%s.txt", kind, start.Format("20060102_150405"), shortID(runID))
	}
	return filepath.Join(dir, name)
}

// WriteSummaryLog writes a run summary to a text file in dir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary *types.RunSummary, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	summaryPath := ReportPath(dir, "summary", summary.StartTime, summary.RunID)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	destination := summary.Destination
	if summary.DryRun {
		destination = "(dry run, not saved)"
	}

	fmt.Fprintf(writer, "Inventory Count - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Layout:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Spreadsheet:    %s\n"+
		"  Saved To:       %s\n\n"+
		"Statistics:\n"+
		"  Count Files:        %d\n"+
		"  Distinct Products:  %d\n"+
		"  Units Counted:      %d\n"+
		"  Rows Updated:       %d\n"+
		"  Not Found:          %d\n"+
		"  Duplicate Keys:     %d\n\n",
		summary.RunID,
		summary.Layout,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.Spreadsheet,
		destination,
		len(summary.Files),
		summary.Distinct,
		summary.TotalUnits,
		len(summary.Matched),
		len(summary.NotFound),
		len(summary.DuplicateKeys))

	if len(summary.Files) > 0 {
		writer.WriteString("Count Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, f := range summary.Files {
			fmt.Fprintf(writer, "  %-40s lines %6d  barcodes %6d  rejected %6d\n",
				f.Name, f.Lines, f.Barcodes, f.Rejected)
		}
		writer.WriteString("\n")
	}

	if len(summary.NotFound) > 0 {
		writer.WriteString("Barcodes Not Found:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, b := range summary.NotFound {
			fmt.Fprintf(writer, "  %s\n", b)
		}
		writer.WriteString("\n")
	}

	if len(summary.DuplicateKeys) > 0 {
		writer.WriteString("Duplicate Keys:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, k := range summary.DuplicateKeys {
			fmt.Fprintf(writer, "  %s\n", k)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
