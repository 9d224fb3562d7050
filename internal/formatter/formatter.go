// package formatter provides functions to export order contents to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"humblesync/internal/models"
	"humblesync/internal/shared"
)

// ExportToCSV converts an order to CSV format with columns: ID, Name, Kind, Detail
//
// Keys report their type and reveal state, downloads report their platforms.
func ExportToCSV(order *models.Order) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Kind", "Detail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, key := range order.TpkdDict.AllTpks {
		record := []string{
			key.MachineName,
			key.HumanName,
			"key",
			keyDetail(key),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	for _, sub := range order.Subproducts {
		record := []string{
			sub.MachineName,
			sub.HumanName,
			"download",
			strings.Join(platforms(sub), " "),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an order to Markdown format
func ExportToMarkdown(order *models.Order) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", order.Product.HumanName))

	if order.Created != "" {
		buf.WriteString(fmt.Sprintf("**Purchased**: %s\n", order.Created))
	}
	buf.WriteString(fmt.Sprintf("**Category**: %s\n", order.Product.Category))
	buf.WriteString(fmt.Sprintf("**Keys**: %d\n", len(order.TpkdDict.AllTpks)))
	buf.WriteString(fmt.Sprintf("**Downloads**: %d\n\n", len(order.Subproducts)))

	if len(order.TpkdDict.AllTpks) > 0 {
		buf.WriteString("## Keys\n\n")
		for i, key := range order.TpkdDict.AllTpks {
			buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, key.HumanName, keyDetail(key)))
		}
		buf.WriteString("\n")
	}

	if len(order.Subproducts) > 0 {
		buf.WriteString("## Downloads\n\n")
		for i, sub := range order.Subproducts {
			platformPart := ""
			if plats := platforms(sub); len(plats) > 0 {
				platformPart = fmt.Sprintf(" (%s)", strings.Join(plats, ", "))
			}
			buf.WriteString(fmt.Sprintf("%d. %s%s [%s]\n", i+1, sub.HumanName, platformPart, downloadSize(sub)))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts an order to plain text format
func ExportToText(order *models.Order) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Order: %s\n", order.Product.HumanName))
	if order.Created != "" {
		buf.WriteString(fmt.Sprintf("Purchased: %s\n", order.Created))
	}
	buf.WriteString(fmt.Sprintf("Keys: %d, Downloads: %d\n\n", len(order.TpkdDict.AllTpks), len(order.Subproducts)))

	n := 0
	for _, key := range order.TpkdDict.AllTpks {
		n++
		buf.WriteString(fmt.Sprintf("%d. [key] %s\n", n, key.HumanName))
	}
	for _, sub := range order.Subproducts {
		n++
		buf.WriteString(fmt.Sprintf("%d. %s\n", n, sub.HumanName))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of order metadata (without contents)
func ToMetadataJSON(order *models.Order) ([]byte, error) {
	metadata := struct {
		GameKey   string              `json:"gamekey"`
		Created   string              `json:"created"`
		Product   models.OrderProduct `json:"product"`
		Keys      int                 `json:"keys"`
		Downloads int                 `json:"downloads"`
	}{
		GameKey:   order.GameKey,
		Created:   order.Created,
		Product:   order.Product,
		Keys:      len(order.TpkdDict.AllTpks),
		Downloads: len(order.Subproducts),
	}
	return shared.MarshalJSON(metadata, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ContentsFile string
	MetadataFile string
}

// WriteCSVExport exports an order to CSV format with an accompanying metadata JSON file.
//
// Defaults to the order's gamekey as the base filename & creates {base}_contents.csv and {base}_metadata.json
func WriteCSVExport(order *models.Order, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = order.GameKey
	}

	csvData, err := ExportToCSV(order)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	contentsFile := baseFilepath + "_contents.csv"
	if err := os.WriteFile(contentsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(order)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		ContentsFile: contentsFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports an order to Markdown format in a dedicated directory.
//
// Directory name defaults to the order's gamekey. Creates {dir}/README.md.
func WriteMarkdownExport(order *models.Order, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = order.GameKey
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	mdData, err := ExportToMarkdown(order)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := fmt.Sprintf("%s/README.md", outputDir)
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteTextExport exports an order to plain text format.
//
// Defaults to {gamekey}_contents.txt as the filename.
func WriteTextExport(order *models.Order, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_contents.txt", order.GameKey)
	}

	textData, err := ExportToText(order)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

func keyDetail(key models.KeyData) string {
	label := key.KeyTypeHumanName
	if label == "" {
		label = key.KeyType
	}
	if key.RedeemedKeyVal != "" {
		return label + ", revealed"
	}
	return label + ", unrevealed"
}

func platforms(sub models.SubproductData) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, d := range sub.Downloads {
		if !seen[d.PlatformName] {
			seen[d.PlatformName] = true
			out = append(out, d.PlatformName)
		}
	}
	return out
}

func downloadSize(sub models.SubproductData) string {
	var total int64
	for _, d := range sub.Downloads {
		for _, ds := range d.DownloadStructs {
			total += ds.FileSize
		}
	}
	return shared.FormatBytes(total)
}
