package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const createItemsTable = `
CREATE TABLE IF NOT EXISTS items (
	hn_id INTEGER PRIMARY KEY,              -- Hacker News item id
	type TEXT NOT NULL,
	author TEXT,
	title TEXT,
	text TEXT,
	url TEXT,
	score INTEGER DEFAULT 0,
	descendants INTEGER DEFAULT 0,
	parent INTEGER,
	created_at TIMESTAMP NOT NULL,
	seen_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// initDB opens the archive database at path and creates its schema.
// The archive records what the live stream saw; it is never read back as a cache.
func initDB(path string) (*sql.DB, error) {
	slog.Debug("Initializing database", "path", path)

	db, err := sql.Open("sqlite", path) // Use "sqlite" driver name
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(createItemsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create items table: %w", err)
	}

	createIndexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_items_type ON items(type)",
		"CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at)",
	}
	for _, indexSQL := range createIndexes {
		if _, err := db.Exec(indexSQL); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
	}

	slog.Debug("Database initialized successfully")
	return db, nil
}

// archiveItems upserts items and returns how many rows changed
func archiveItems(db *sql.DB, items []*Item) (int, error) {
	slog.Debug("Archiving items", "itemCount", len(items))

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO items (hn_id, type, author, title, text, url, score, descendants, parent, created_at, seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hn_id) DO UPDATE SET
			title = excluded.title,
			text = excluded.text,
			url = excluded.url,
			score = excluded.score,
			descendants = excluded.descendants,
			seen_at = excluded.seen_at`) // created_at is not updated on conflict
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	archived := 0
	for _, item := range items {
		var parent sql.NullInt64
		if item.Parent != 0 {
			parent = sql.NullInt64{Int64: int64(item.Parent), Valid: true}
		}
		result, err := stmt.Exec(item.ID, item.Type, item.By, item.Title, item.Text, item.URL,
			item.Score, item.Descendants, parent, item.CreatedAt(), now)
		if err != nil {
			slog.Error("Error archiving item", "error", err, "hn_id", item.ID)
			continue
		}
		if n, _ := result.RowsAffected(); n > 0 {
			archived++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit archive: %w", err)
	}
	return archived, nil
}

// getArchivedItems returns the newest archived items, optionally of one type
func getArchivedItems(db *sql.DB, limit int, itemType string) ([]*Item, error) {
	slog.Debug("Querying archive", "limit", limit, "type", itemType)

	query := `SELECT hn_id, type, author, title, text, url, score, descendants, parent, created_at
		FROM items WHERE (? = '' OR type = ?) ORDER BY hn_id DESC LIMIT ?`
	rows, err := db.Query(query, itemType, itemType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*Item
	for rows.Next() {
		var item Item
		var parent sql.NullInt64
		var createdAt time.Time
		if err := rows.Scan(&item.ID, &item.Type, &item.By, &item.Title, &item.Text, &item.URL,
			&item.Score, &item.Descendants, &parent, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan archived item: %w", err)
		}
		item.Parent = int(parent.Int64)
		item.Time = createdAt.Unix()
		items = append(items, &item)
	}
	return items, rows.Err()
}
