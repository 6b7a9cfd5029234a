package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pzyt/crystal-healing/internal/domain"
)

// ─── Crystal Catalog Operations ─────────────────────────────────────────────

const crystalColumns = `id, name, chinese_name, category, color, five_elements, healing_properties, suitable_for, image_url, price, description, created_at`

// ListCrystals returns the full catalog.
func (db *DB) ListCrystals() ([]domain.Crystal, error) {
	return db.queryCrystals(`SELECT `+crystalColumns+` FROM crystals ORDER BY id`, nil...)
}

// CrystalByID fetches one catalog entry.
func (db *DB) CrystalByID(id int64) (*domain.Crystal, error) {
	row := db.db.QueryRow(`SELECT `+crystalColumns+` FROM crystals WHERE id = ?`, id)
	c, err := scanCrystal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCrystalNotFound
	}
	return c, err
}

// SearchCrystals matches the query against English name, Chinese name, and
// description.
func (db *DB) SearchCrystals(q string) ([]domain.Crystal, error) {
	like := "%" + q + "%"
	return db.queryCrystals(`
		SELECT `+crystalColumns+` FROM crystals
		WHERE name LIKE ? OR chinese_name LIKE ? OR description LIKE ?
		ORDER BY id
	`, like, like, like)
}

// CrystalsByElement returns catalog entries tagged with the given element.
// five_elements holds a JSON array of Han characters, so a quoted LIKE is
// an exact member match.
func (db *DB) CrystalsByElement(e domain.Element) ([]domain.Crystal, error) {
	return db.queryCrystals(`
		SELECT `+crystalColumns+` FROM crystals
		WHERE five_elements LIKE ? ORDER BY id
	`, `%"`+e.Han()+`"%`)
}

// CrystalsByHealingProperty returns entries whose healing properties mention
// the given keyword.
func (db *DB) CrystalsByHealingProperty(keyword string) ([]domain.Crystal, error) {
	return db.queryCrystals(`
		SELECT `+crystalColumns+` FROM crystals
		WHERE healing_properties LIKE ? ORDER BY id
	`, "%"+keyword+"%")
}

// CrystalStats aggregates catalog counts for the stats endpoint.
type CrystalStats struct {
	Total      int                    `json:"total"`
	ByCategory map[string]int         `json:"by_category"`
	ByElement  map[domain.Element]int `json:"by_element"`
}

// Stats counts the catalog by category and element.
func (db *DB) Stats() (*CrystalStats, error) {
	stats := &CrystalStats{
		ByCategory: make(map[string]int),
		ByElement:  make(map[domain.Element]int),
	}

	rows, err := db.db.Query(`SELECT category, COUNT(*) FROM crystals GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		stats.ByCategory[category] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Element membership lives inside a JSON column, so count in Go.
	crystals, err := db.ListCrystals()
	if err != nil {
		return nil, err
	}
	for _, c := range crystals {
		for _, e := range c.Elements {
			stats.ByElement[e]++
		}
	}
	return stats, nil
}

// InsertCrystal adds a catalog entry, skipping duplicates by English name.
// Returns false when the entry already existed.
func (db *DB) InsertCrystal(c domain.Crystal) (bool, error) {
	han := make([]string, 0, len(c.Elements))
	for _, e := range c.Elements {
		han = append(han, e.Han())
	}
	elementsJSON, err := json.Marshal(han)
	if err != nil {
		return false, err
	}
	propsJSON, err := json.Marshal(c.HealingProperties)
	if err != nil {
		return false, err
	}
	suitableJSON, err := json.Marshal(c.SuitableFor)
	if err != nil {
		return false, err
	}

	res, err := db.db.Exec(`
		INSERT OR IGNORE INTO crystals (name, chinese_name, category, color, five_elements, healing_properties, suitable_for, image_url, price, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Name, c.ChineseName, c.Category, c.Color, string(elementsJSON), string(propsJSON), string(suitableJSON), c.ImageURL, c.Price, c.Description)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (db *DB) queryCrystals(query string, args ...any) ([]domain.Crystal, error) {
	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Crystal
	for rows.Next() {
		c, err := scanCrystal(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func scanCrystal(scan func(dest ...any) error) (*domain.Crystal, error) {
	var c domain.Crystal
	var elementsJSON, propsJSON, suitableJSON, createdStr string
	err := scan(&c.ID, &c.Name, &c.ChineseName, &c.Category, &c.Color,
		&elementsJSON, &propsJSON, &suitableJSON, &c.ImageURL, &c.Price, &c.Description, &createdStr)
	if err != nil {
		return nil, err
	}

	var han []string
	if err := json.Unmarshal([]byte(elementsJSON), &han); err != nil {
		return nil, fmt.Errorf("unmarshal five_elements: %w", err)
	}
	for _, h := range han {
		if e, ok := domain.ElementFromHan(h); ok {
			c.Elements = append(c.Elements, e)
		}
	}
	if err := json.Unmarshal([]byte(propsJSON), &c.HealingProperties); err != nil {
		return nil, fmt.Errorf("unmarshal healing_properties: %w", err)
	}
	if err := json.Unmarshal([]byte(suitableJSON), &c.SuitableFor); err != nil {
		return nil, fmt.Errorf("unmarshal suitable_for: %w", err)
	}
	c.CreatedAt = parseTime(createdStr)
	return &c, nil
}
