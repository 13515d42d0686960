package db

import (
	"context"
	"database/sql"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/models"
)

const scanColumns = "id, barcode, platform, product_id, product_name, sku, price, buyer_name, order_id, image_url, captured_at"

// CreateScan appends a scan record and returns its ID.
func CreateScan(ctx context.Context, d *sql.DB, s *models.Scan) (int64, error) {
	result, err := d.ExecContext(ctx, `
		INSERT INTO scans (barcode, platform, product_id, product_name, sku, price, buyer_name, order_id, image_url, captured_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.Barcode, s.Platform, s.ProductID, s.ProductName, s.SKU, s.Price.StringFixed(2), s.BuyerName, s.OrderID, s.ImageURL, s.CapturedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RecentScans returns up to limit scans, newest first.
func RecentScans(ctx context.Context, d *sql.DB, limit int) ([]models.Scan, error) {
	rows, err := d.QueryContext(ctx,
		"SELECT "+scanColumns+" FROM scans ORDER BY captured_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// ListScansBetween returns scans captured in [from, to) (unix milliseconds),
// oldest first. An empty platform matches all platforms.
func ListScansBetween(ctx context.Context, d *sql.DB, from, to int64, platform string) ([]models.Scan, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT `+scanColumns+` FROM scans
		WHERE captured_at >= ? AND captured_at < ? AND (? = '' OR platform = ?)
		ORDER BY captured_at ASC, id ASC
	`, from, to, platform, platform)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// CountScansByDay returns scan counts per UTC capture date, newest first.
func CountScansByDay(ctx context.Context, d *sql.DB) ([]models.DayCount, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', captured_at / 1000, 'unixepoch') AS day, COUNT(*)
		FROM scans
		GROUP BY day
		ORDER BY day DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.DayCount
	for rows.Next() {
		var c models.DayCount
		if err := rows.Scan(&c.Day, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// CountScansByPlatform returns scan counts per platform name.
func CountScansByPlatform(ctx context.Context, d *sql.DB) ([]models.PlatformCount, error) {
	rows, err := d.QueryContext(ctx, `
		SELECT platform, COUNT(*) FROM scans
		GROUP BY platform
		ORDER BY COUNT(*) DESC, platform ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.PlatformCount
	for rows.Next() {
		var c models.PlatformCount
		if err := rows.Scan(&c.Platform, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func scanRows(rows *sql.Rows) ([]models.Scan, error) {
	var scans []models.Scan
	for rows.Next() {
		var s models.Scan
		err := rows.Scan(&s.ID, &s.Barcode, &s.Platform, &s.ProductID, &s.ProductName, &s.SKU, &s.Price, &s.BuyerName, &s.OrderID, &s.ImageURL, &s.CapturedAt)
		if err != nil {
			return nil, err
		}
		scans = append(scans, s)
	}
	return scans, rows.Err()
}
