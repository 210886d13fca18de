// Package cartsheet reads and writes cart lines as an .xlsx sheet
package cartsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Cart"

var ErrNoRows = errors.New("no cart rows found in sheet")

// 헤더 순서가 곧 컬럼 순서
var headers = []string{
	"product_id", "variant_id", "product_name", "sku", "quantity",
	"price", "original_price", "discount", "offer", "image", "subtotal",
}

// Write renders lines with a header row and a totals row
func Write(w io.Writer, lines []model.CartLine) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, line := range lines {
		variant := ""
		if line.VariantID != nil {
			variant = strconv.FormatInt(*line.VariantID, 10)
		}
		row := []interface{}{
			line.ProductID,
			variant,
			line.ProductName,
			line.SKU,
			line.Quantity,
			line.Price.String(),
			line.OriginalPrice.String(),
			line.Discount.String(),
			line.Offer,
			line.Image,
			line.Subtotal().String(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	summary := model.Summarize(lines)
	totalCell, err := excelize.CoordinatesToCellName(1, len(lines)+3)
	if err != nil {
		return err
	}
	totals := []interface{}{"total", "", "", "", summary.Items, "", summary.OriginalTotal.String(), summary.Savings.String(), "", "", summary.Subtotal.String()}
	if err := f.SetSheetRow(SheetName, totalCell, &totals); err != nil {
		return fmt.Errorf("failed to write totals: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

// Read parses the first sheet. Rows without a numeric product id, such as the totals row, are skipped.
func Read(r io.Reader) ([]model.CartLine, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no sheets found in xlsx")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := columns["product_id"]; !ok {
		return nil, fmt.Errorf("missing product_id column")
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var lines []model.CartLine
	for _, row := range rows[1:] {
		productID, err := strconv.ParseInt(cell(row, "product_id"), 10, 64)
		if err != nil || productID == 0 {
			continue
		}
		line := model.CartLine{
			ProductID:     productID,
			ProductName:   cell(row, "product_name"),
			SKU:           cell(row, "sku"),
			Offer:         cell(row, "offer"),
			Image:         cell(row, "image"),
			Price:         parseDecimal(cell(row, "price")),
			OriginalPrice: parseDecimal(cell(row, "original_price")),
			Discount:      parseDecimal(cell(row, "discount")),
		}
		if v, err := strconv.ParseInt(cell(row, "variant_id"), 10, 64); err == nil {
			line.VariantID = &v
		}
		line.Quantity, _ = strconv.Atoi(cell(row, "quantity"))
		lines = append(lines, line.Normalized())
	}
	if len(lines) == 0 {
		return nil, ErrNoRows
	}
	return lines, nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
