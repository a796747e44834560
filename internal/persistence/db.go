// Package persistence stores generated map records and the user edits made
// on top of them in SQLite. A map is regenerated from its seed and
// parameters, then its edits are replayed.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrMapNotFound is returned when no map has the requested id.
var ErrMapNotFound = errors.New("map not found")

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS maps (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		width REAL NOT NULL,
		height REAL NOT NULL,
		num_sites INTEGER NOT NULL,
		region_count INTEGER NOT NULL,
		land_shape TEXT NOT NULL,
		line_style TEXT NOT NULL,
		relaxations INTEGER NOT NULL,
		inland_land REAL NOT NULL,
		border_land REAL NOT NULL,
		resolution REAL NOT NULL,
		river_density REAL NOT NULL,
		elevation_noise REAL NOT NULL,
		lookup_mode TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS center_edits (
		map_id TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
		center INTEGER NOT NULL,
		is_water INTEGER NOT NULL,
		is_lake INTEGER NOT NULL,
		region_id INTEGER NOT NULL,
		PRIMARY KEY (map_id, center)
	);

	CREATE TABLE IF NOT EXISTS edge_edits (
		map_id TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
		edge INTEGER NOT NULL,
		river_level INTEGER NOT NULL,
		PRIMARY KEY (map_id, edge)
	);

	CREATE TABLE IF NOT EXISTS region_edits (
		map_id TEXT NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
		region_id INTEGER NOT NULL,
		color INTEGER NOT NULL,
		PRIMARY KEY (map_id, region_id)
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_maps_created ON maps(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// MapRecord describes a generated map well enough to regenerate it. Every
// generation input is stored, since edits are keyed by cell and edge index
// and only replay onto an identical graph.
type MapRecord struct {
	ID             uuid.UUID `db:"id"`
	Name           string    `db:"name"`
	Seed           int64     `db:"seed"`
	Width          float64   `db:"width"`
	Height         float64   `db:"height"`
	NumSites       int       `db:"num_sites"`
	RegionCount    int       `db:"region_count"`
	LandShape      string    `db:"land_shape"`
	LineStyle      string    `db:"line_style"`
	Relaxations    int       `db:"relaxations"`
	InlandLand     float64   `db:"inland_land"`
	BorderLand     float64   `db:"border_land"`
	Resolution     float64   `db:"resolution"`
	RiverDensity   float64   `db:"river_density"`
	ElevationNoise float64   `db:"elevation_noise"`
	LookupMode     string    `db:"lookup_mode"`
	CreatedAt      int64     `db:"created_at"`
}

// CenterEdit is a stored cell override.
type CenterEdit struct {
	Center   int  `db:"center"`
	IsWater  bool `db:"is_water"`
	IsLake   bool `db:"is_lake"`
	RegionID int  `db:"region_id"`
}

// EdgeEdit is a stored river override.
type EdgeEdit struct {
	Edge       int `db:"edge"`
	RiverLevel int `db:"river_level"`
}

// RegionEdit is a stored region color as 0xRRGGBBAA.
type RegionEdit struct {
	RegionID int    `db:"region_id"`
	Color    uint32 `db:"color"`
}

// CreateMap stores a new map record, assigning its id and creation time.
func (db *DB) CreateMap(rec MapRecord) (MapRecord, error) {
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now().Unix()
	_, err := db.conn.NamedExec(`INSERT INTO maps
		(id, name, seed, width, height, num_sites, region_count, land_shape, line_style,
		 relaxations, inland_land, border_land, resolution, river_density, elevation_noise, lookup_mode, created_at)
		VALUES (:id, :name, :seed, :width, :height, :num_sites, :region_count, :land_shape, :line_style,
		 :relaxations, :inland_land, :border_land, :resolution, :river_density, :elevation_noise, :lookup_mode, :created_at)`,
		rec)
	if err != nil {
		return MapRecord{}, fmt.Errorf("insert map: %w", err)
	}
	slog.Info("map stored", "id", rec.ID, "name", rec.Name, "seed", rec.Seed)
	return rec, nil
}

// GetMap loads a map record.
func (db *DB) GetMap(id uuid.UUID) (MapRecord, error) {
	var rec MapRecord
	err := db.conn.Get(&rec, "SELECT * FROM maps WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return MapRecord{}, fmt.Errorf("map %s: %w", id, ErrMapNotFound)
	}
	return rec, err
}

// ListMaps returns all maps, newest first.
func (db *DB) ListMaps() ([]MapRecord, error) {
	var recs []MapRecord
	err := db.conn.Select(&recs, "SELECT * FROM maps ORDER BY created_at DESC, name")
	return recs, err
}

// DeleteMap removes a map and its edits.
func (db *DB) DeleteMap(id uuid.UUID) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"center_edits", "edge_edits", "region_edits"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE map_id = ?", id); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	res, err := tx.Exec("DELETE FROM maps WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("map %s: %w", id, ErrMapNotFound)
	}
	return tx.Commit()
}

// SaveCenterEdits upserts cell overrides for a map.
func (db *DB) SaveCenterEdits(mapID uuid.UUID, edits []CenterEdit) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO center_edits
		(map_id, center, is_water, is_lake, region_id) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range edits {
		if _, err := stmt.Exec(mapID, e.Center, e.IsWater, e.IsLake, e.RegionID); err != nil {
			return fmt.Errorf("insert center edit %d: %w", e.Center, err)
		}
	}
	return tx.Commit()
}

// SaveEdgeEdits upserts river overrides for a map.
func (db *DB) SaveEdgeEdits(mapID uuid.UUID, edits []EdgeEdit) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO edge_edits
		(map_id, edge, river_level) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range edits {
		if _, err := stmt.Exec(mapID, e.Edge, e.RiverLevel); err != nil {
			return fmt.Errorf("insert edge edit %d: %w", e.Edge, err)
		}
	}
	return tx.Commit()
}

// SaveRegionEdits upserts region colors for a map.
func (db *DB) SaveRegionEdits(mapID uuid.UUID, edits []RegionEdit) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO region_edits
		(map_id, region_id, color) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range edits {
		if _, err := stmt.Exec(mapID, e.RegionID, e.Color); err != nil {
			return fmt.Errorf("insert region edit %d: %w", e.RegionID, err)
		}
	}
	return tx.Commit()
}

// CenterEdits returns a map's cell overrides ordered by cell.
func (db *DB) CenterEdits(mapID uuid.UUID) ([]CenterEdit, error) {
	var edits []CenterEdit
	err := db.conn.Select(&edits,
		"SELECT center, is_water, is_lake, region_id FROM center_edits WHERE map_id = ? ORDER BY center",
		mapID,
	)
	return edits, err
}

// EdgeEdits returns a map's river overrides ordered by edge.
func (db *DB) EdgeEdits(mapID uuid.UUID) ([]EdgeEdit, error) {
	var edits []EdgeEdit
	err := db.conn.Select(&edits,
		"SELECT edge, river_level FROM edge_edits WHERE map_id = ? ORDER BY edge",
		mapID,
	)
	return edits, err
}

// RegionEdits returns a map's region colors ordered by region.
func (db *DB) RegionEdits(mapID uuid.UUID) ([]RegionEdit, error) {
	var edits []RegionEdit
	err := db.conn.Select(&edits,
		"SELECT region_id, color FROM region_edits WHERE map_id = ? ORDER BY region_id",
		mapID,
	)
	return edits, err
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
