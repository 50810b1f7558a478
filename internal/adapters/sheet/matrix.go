// Package sheet exporta la matriz de variantes a XLSX y lee de vuelta las
// ediciones de SKU, precio y stock.
package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/templemart/internal/domain"
	"github.com/phenrril/templemart/internal/variation"
)

const SheetName = "Variantes"

const (
	colID    = "ID"
	colSKU   = "SKU"
	colPrice = "Precio"
	colAdd   = "Adicional"
	colTotal = "Total"
	colStock = "Stock"
)

// ExportMatrix escribe una fila por variante: id, un valor por atributo, SKU,
// precio, adicional, total y stock.
func ExportMatrix(w io.Writer, attributes []string, variants []domain.Variant) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	header := []any{colID}
	for _, a := range attributes {
		header = append(header, a)
	}
	header = append(header, colSKU, colPrice, colAdd, colTotal, colStock)
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, bold)
	}

	for i, v := range variants {
		row := []any{v.ID}
		for _, a := range attributes {
			val, _ := v.Value(a)
			row = append(row, val)
		}
		price, _ := v.Price.Float64()
		add, _ := v.AdditionalPrice.Float64()
		total, _ := v.TotalPrice.Float64()
		var stock any = ""
		if v.Stock != nil {
			stock = *v.Stock
		}
		row = append(row, v.SKU, price, add, total, stock)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetName, "A", "A", 38)
	return f.Write(w)
}

// ImportEdits lee la hoja exportada. Solo toma SKU, Precio y Stock; las celdas
// vacías no se tocan y Adicional/Total se ignoran porque son derivados.
func ImportEdits(r io.Reader) ([]variation.VariantEdit, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.Invalid("file", "xlsx inválido")
	}
	defer f.Close()

	sheet := SheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, domain.Invalid("file", "xlsx sin hojas")
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.Invalid("file", "hoja vacía")
	}
	cols := resolveColumns(rows[0])
	if cols.id < 0 {
		return nil, domain.Invalid("file", "falta la columna ID")
	}

	var edits []variation.VariantEdit
	for n, row := range rows[1:] {
		line := n + 2
		id := cell(row, cols.id)
		if id == "" {
			continue
		}
		e := variation.VariantEdit{ID: id}
		if cols.sku >= 0 {
			if s := cell(row, cols.sku); s != "" {
				e.SKU = &s
			}
		}
		if cols.price >= 0 {
			if s := cell(row, cols.price); s != "" {
				p, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
				if err != nil {
					return nil, domain.Invalid("price", fmt.Sprintf("fila %d: precio inválido %q", line, s))
				}
				e.Price = &p
			}
		}
		if cols.stock >= 0 {
			if s := cell(row, cols.stock); s != "" {
				st, err := strconv.Atoi(s)
				if err != nil {
					return nil, domain.Invalid("stock", fmt.Sprintf("fila %d: stock inválido %q", line, s))
				}
				e.Stock = &st
			}
		}
		edits = append(edits, e)
	}
	return edits, nil
}

type columns struct {
	id, sku, price, stock int
}

var trailer = []string{colSKU, colPrice, colAdd, colTotal, colStock}

// resolveColumns ubica las columnas fijas. En una hoja exportada van por
// posición (ID primero, el resto al final) así un atributo llamado igual que
// una columna fija no la tapa. En otras hojas se busca por título.
func resolveColumns(header []string) columns {
	norm := make([]string, len(header))
	for i, h := range header {
		norm[i] = strings.ToLower(strings.TrimSpace(h))
	}
	is := func(i int, name string) bool { return norm[i] == strings.ToLower(name) }

	if n := len(norm); n >= len(trailer)+1 && is(0, colID) {
		exported := true
		for k, name := range trailer {
			if !is(n-len(trailer)+k, name) {
				exported = false
				break
			}
		}
		if exported {
			base := n - len(trailer)
			return columns{id: 0, sku: base, price: base + 1, stock: base + 4}
		}
	}

	c := columns{id: -1, sku: -1, price: -1, stock: -1}
	for i := range norm {
		switch {
		case is(i, colID) && c.id < 0:
			c.id = i
		case is(i, colSKU):
			c.sku = i
		case is(i, colPrice):
			c.price = i
		case is(i, colStock):
			c.stock = i
		}
	}
	return c
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
