package xlsx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

const SheetName = "report"

// Exporter writes a report as a two-column key/value sheet. Nested objects and
// arrays are flattened into dotted key paths.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(ctx context.Context, report domain.RawDocument, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var decoded any
	if err := json.Unmarshal(report, &decoded); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "export report", fmt.Errorf("report is not json: %w", err))
	}
	rows := Flatten(decoded)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &[]any{"key", "value"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &[]any{row.Key, row.Value}); err != nil {
			return fmt.Errorf("write row %s: %w", row.Key, err)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

type Row struct {
	Key   string
	Value any
}

// Flatten turns a decoded JSON value into rows sorted by key. A scalar root
// becomes a single row with key "value".
func Flatten(v any) []Row {
	var rows []Row
	flattenInto(&rows, "", v)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })
	return rows
}

func flattenInto(rows *[]Row, prefix string, v any) {
	switch typed := v.(type) {
	case map[string]any:
		if len(typed) == 0 && prefix != "" {
			*rows = append(*rows, Row{Key: prefix, Value: "{}"})
			return
		}
		for key, child := range typed {
			flattenInto(rows, join(prefix, key), child)
		}
	case []any:
		if len(typed) == 0 && prefix != "" {
			*rows = append(*rows, Row{Key: prefix, Value: "[]"})
			return
		}
		for i, child := range typed {
			flattenInto(rows, join(prefix, strconv.Itoa(i)), child)
		}
	case nil:
		*rows = append(*rows, Row{Key: keyOrValue(prefix), Value: ""})
	default:
		*rows = append(*rows, Row{Key: keyOrValue(prefix), Value: typed})
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func keyOrValue(key string) string {
	if strings.TrimSpace(key) == "" {
		return "value"
	}
	return key
}
