package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// TemplateFilename is the suggested name for the downloaded template.
const TemplateFilename = "plantilla_importacion.xlsx"

const templateSheet = "Productos"

var templateExample = []any{"TORN-001", "Tornillo M8 x 20mm", "Tornillo de acero inoxidable", "Ferretería", 150}

// WriteTemplate writes an XLSX file with the import header row and one
// example row.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(templateSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := f.SetSheetRow(templateSheet, "A2", &templateExample); err != nil {
		return fmt.Errorf("writing example row: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing template: %w", err)
	}
	return nil
}
