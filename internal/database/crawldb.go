package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitetree/internal/model"
)

// FileName is the name of the archive database inside its directory.
const FileName = "sitetree.db"

var (
	// ErrCrawlNotFound is returned when no crawl has the requested ID.
	ErrCrawlNotFound = errors.New("crawl not found")

	// ErrEmptyTree is returned when saving a crawl whose root was not fetched.
	ErrEmptyTree = errors.New("crawl has no root document")
)

// CrawlDB provides SQLite-based storage for finished crawls.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the archive in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per finished crawl; timestamps are RFC 3339 text
	CREATE TABLE IF NOT EXISTS crawls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		resource_count INTEGER NOT NULL,
		depth INTEGER NOT NULL,
		tree_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_crawls_base_url ON crawls(base_url);
	CREATE INDEX IF NOT EXISTS idx_crawls_started_at ON crawls(started_at);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// CrawlRecord summarizes a stored crawl without its tree.
type CrawlRecord struct {
	// ID is the unique identifier of the crawl in the archive.
	ID int64

	// BaseURL is the site the crawl was scoped to.
	BaseURL string

	// StartedAt is when the crawl started.
	StartedAt time.Time

	// FinishedAt is when the crawl finished.
	FinishedAt time.Time

	// ResourceCount is the number of nodes in the tree.
	ResourceCount int

	// Depth is the number of levels below the root.
	Depth int
}

// Duration returns how long the crawl took.
func (r CrawlRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SaveCrawl stores a finished crawl and returns its ID.
func (cdb *CrawlDB) SaveCrawl(ctx context.Context, tree *model.SiteTree) (int64, error) {
	if tree == nil || tree.Root == nil {
		return 0, ErrEmptyTree
	}

	treeJSON, err := json.Marshal(tree.Root)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize tree: %w", err)
	}

	query := `
	INSERT INTO crawls (base_url, started_at, finished_at, resource_count, depth, tree_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := cdb.db.ExecContext(ctx, query,
		tree.BaseURL,
		formatTimestamp(tree.StartedAt),
		formatTimestamp(tree.FinishedAt),
		tree.ResourceCount(),
		tree.Root.Depth(),
		string(treeJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save crawl: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get crawl ID: %w", err)
	}
	return id, nil
}

// ListCrawls returns the stored crawls, newest first.
// If baseURL is not empty, only crawls of that site are returned.
func (cdb *CrawlDB) ListCrawls(ctx context.Context, baseURL string) ([]CrawlRecord, error) {
	query := `
	SELECT id, base_url, started_at, finished_at, resource_count, depth
	FROM crawls
	`
	args := []any{}
	if baseURL != "" {
		query += " WHERE base_url = ?"
		args = append(args, baseURL)
	}
	query += " ORDER BY id DESC"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawls: %w", err)
	}
	defer rows.Close()

	var records []CrawlRecord
	for rows.Next() {
		var r CrawlRecord
		var startedAt, finishedAt string

		if err := rows.Scan(&r.ID, &r.BaseURL, &startedAt, &finishedAt, &r.ResourceCount, &r.Depth); err != nil {
			return nil, fmt.Errorf("failed to scan crawl: %w", err)
		}
		r.StartedAt = parseTimestamp(startedAt)
		r.FinishedAt = parseTimestamp(finishedAt)

		records = append(records, r)
	}

	return records, rows.Err()
}

// ListSites returns the distinct base URLs in the archive, sorted.
func (cdb *CrawlDB) ListSites(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT base_url FROM crawls
	ORDER BY base_url
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// GetCrawl returns the stored crawl with the given ID.
// It returns ErrCrawlNotFound if there is none.
func (cdb *CrawlDB) GetCrawl(ctx context.Context, id int64) (*model.SiteTree, error) {
	query := `
	SELECT base_url, started_at, finished_at, tree_json
	FROM crawls
	WHERE id = ?
	`

	var baseURL, startedAt, finishedAt, treeJSON string
	err := cdb.db.QueryRowContext(ctx, query, id).Scan(&baseURL, &startedAt, &finishedAt, &treeJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrCrawlNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl: %w", err)
	}

	var root model.Node
	if err := json.Unmarshal([]byte(treeJSON), &root); err != nil {
		return nil, fmt.Errorf("failed to parse tree: %w", err)
	}

	return model.NewSiteTree(baseURL, &root, parseTimestamp(startedAt), parseTimestamp(finishedAt)), nil
}

// formatTimestamp renders t for storage.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats accepted when reading.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
