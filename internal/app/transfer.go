package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JJCAR01/UX/internal/export"
	"github.com/JJCAR01/UX/internal/importer"
	"github.com/JJCAR01/UX/internal/inventory"
)

// ExportFiltered writes the filtered, sorted list as a workbook and
// returns how many products it contains.
func (c *Controller) ExportFiltered(w io.Writer) (int, error) {
	c.mu.Lock()
	products := c.machine.Filtered()
	c.mu.Unlock()

	if err := export.Write(w, export.SheetInventory, products); err != nil {
		return 0, err
	}
	return len(products), nil
}

// ExportSelected writes the selected products, resolved against the
// cache, as a workbook.
func (c *Controller) ExportSelected(w io.Writer) (int, error) {
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}
	products := c.cache.Lookup(ids)

	if err := export.Write(w, export.SheetSelected, products); err != nil {
		return 0, err
	}
	return len(products), nil
}

// ExportToDir writes an export file named after today's date into dir
// and returns its path.
func (c *Controller) ExportToDir(dir string, selected bool) (string, int, error) {
	prefix, write := export.PrefixInventory, c.ExportFiltered
	if selected {
		if len(c.SelectedIDs()) == 0 {
			return "", 0, ErrEmptySelection
		}
		prefix, write = export.PrefixSelected, c.ExportSelected
	}

	path := filepath.Join(dir, export.Filename(prefix, c.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("creating export file: %w", err)
	}

	n, err := write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}

	c.logger.Info("exported", "path", path, "products", n)
	return path, n, nil
}

// WriteImportTemplate writes the import template into dir.
func (c *Controller) WriteImportTemplate(dir string) (string, error) {
	path := filepath.Join(dir, importer.TemplateFilename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating template: %w", err)
	}
	err = importer.WriteTemplate(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// StageImport parses a spreadsheet and stages its rows for review.
func (c *Controller) StageImport(data []byte) (importer.Summary, error) {
	rows, err := importer.Parse(data)
	if err != nil {
		c.logger.Warn("import parse failed", "err", err)
		return importer.Summary{}, err
	}
	if err := c.staging.Stage(rows); err != nil {
		return importer.Summary{}, err
	}

	sum := c.staging.Summary()
	c.logger.Info("import staged", "rows", sum.Total, "valid", sum.Valid, "errors", sum.Errors)
	return sum, nil
}

// StageImportFile reads path and stages it.
func (c *Controller) StageImportFile(path string) (importer.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return importer.Summary{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return c.StageImport(data)
}

// ImportRows returns the staged rows.
func (c *Controller) ImportRows() []importer.Row {
	return c.staging.Rows()
}

// ImportSummary counts the staged rows.
func (c *Controller) ImportSummary() importer.Summary {
	return c.staging.Summary()
}

// CancelImport discards the staged rows. It fails while an import is
// being committed.
func (c *Controller) CancelImport() error {
	return c.staging.Cancel()
}

// ConfirmImport creates the valid staged rows and reloads the list.
// Rows created before a failure are kept on the server.
func (c *Controller) ConfirmImport(ctx context.Context) (int, error) {
	token := c.session.Token()
	if token == "" {
		return 0, ErrNotAuthenticated
	}
	if err := c.begin(ActionImport); err != nil {
		return 0, err
	}
	defer c.end(ActionImport)

	creator := importer.CreatorFunc(func(ctx context.Context, p inventory.NewProduct) error {
		_, err := c.remote.CreateProduct(ctx, token, p)
		return err
	})

	created, err := c.staging.Confirm(ctx, creator)
	if err != nil {
		c.logger.Error("import stopped", "created", created, "err", err)
		if errors.Is(err, inventory.ErrUnauthorized) {
			return created, c.checkAuth(err)
		}
	} else {
		c.logger.Info("import committed", "created", created)
	}

	if created > 0 {
		c.cache.Invalidate()
		if lerr := c.reload(ctx); lerr != nil && err == nil {
			err = lerr
		}
	}
	return created, err
}
