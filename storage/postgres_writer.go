package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"nhatot-market/models"
)

// PostgresWriter mirrors canonical listings into PostgreSQL, keyed by link.
// Extra provider fields are not mirrored; the CSV snapshot stays the complete
// record of a crawl.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id                   SERIAL PRIMARY KEY,
			city                 TEXT        NOT NULL,
			category             TEXT        NOT NULL DEFAULT '',
			category_code        VARCHAR(20) NOT NULL DEFAULT '',
			title                TEXT        NOT NULL DEFAULT '',
			price_string         TEXT        NOT NULL DEFAULT '',
			price                NUMERIC,
			price_million_per_m2 NUMERIC,
			area                 NUMERIC,
			ward_name            TEXT        NOT NULL DEFAULT '',
			district_name        TEXT        NOT NULL DEFAULT '',
			crawl_time           TIMESTAMPTZ NOT NULL,
			link                 TEXT        UNIQUE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_listings_city     ON listings(city);
		CREATE INDEX IF NOT EXISTS idx_listings_district ON listings(district_name);
		CREATE INDEX IF NOT EXISTS idx_listings_price_m2 ON listings(price_million_per_m2);
	`)
	return err
}

// Write batch-inserts listings; rows whose link already exists are skipped,
// keeping the first-stored row for every link.
func (pw *PostgresWriter) Write(listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.insertBatch(listings[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Listing) error {
	const cols = 12
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, l := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.City, l.Category, l.CategoryCode, l.Title, l.PriceString,
			l.Price, l.PricePerM2, l.Area,
			l.WardName, l.DistrictName, l.CrawlTime, l.Link)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (
			city, category, category_code, title, price_string,
			price, price_million_per_m2, area,
			ward_name, district_name, crawl_time, link
		)
		VALUES %s
		ON CONFLICT (link) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored listings in insertion order.
func (pw *PostgresWriter) FetchAll() ([]*models.Listing, error) {
	rows, err := pw.db.Query(`
		SELECT city, category, category_code, title, price_string,
		       price, price_million_per_m2, area,
		       ward_name, district_name, crawl_time, link
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		var price, priceM2, area sql.NullFloat64
		if err := rows.Scan(
			&l.City, &l.Category, &l.CategoryCode, &l.Title, &l.PriceString,
			&price, &priceM2, &area,
			&l.WardName, &l.DistrictName, &l.CrawlTime, &l.Link,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if price.Valid {
			l.Price = &price.Float64
		}
		if priceM2.Valid {
			l.PricePerM2 = &priceM2.Float64
		}
		if area.Valid {
			l.Area = &area.Float64
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
