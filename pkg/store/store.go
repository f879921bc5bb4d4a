package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"github.com/mwhitford/feedrank/pkg/types"
)

// Store persists article embeddings keyed by link, plus the managed
// feed URL list. Embeddings are stored as JSON text, matching what
// the report endpoints expose.
type Store struct {
	db *sql.DB
}

// Feed is a stored feed URL.
type Feed struct {
	ID          int64
	Url         string
	LastFetched time.Time
}

func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	log.WithFields(log.Fields{"path": path}).Debug("Opened article store")

	return s, nil
}

func (s *Store) createTables() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			link TEXT UNIQUE NOT NULL,
			title TEXT,
			description TEXT,
			image TEXT,
			published TEXT,
			embedding TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS feeds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT UNIQUE NOT NULL,
			last_fetched TEXT
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetArticle returns the stored article for link, or nil when no row
// exists. A row without an embedding yields a nil Embedding.
func (s *Store) GetArticle(ctx context.Context, link string) (*types.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT link, title, description, image, published, embedding
		 FROM articles WHERE link = ? LIMIT 1`, link)

	var a types.Article
	var published, embedding sql.NullString
	if err := row.Scan(&a.Link, &a.Title, &a.Description, &a.Image, &published, &embedding); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query article: %w", err)
	}

	if published.Valid && published.String != "" {
		if t, err := time.Parse(time.RFC3339, published.String); err == nil {
			a.Published = t
		}
	}
	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &a.Embedding); err != nil {
			return nil, fmt.Errorf("failed to decode stored embedding: %w", err)
		}
	}

	return &a, nil
}

// SaveArticleIgnore stores the article and its embedding keyed by
// link. A concurrent duplicate insert for the same link is silently
// dropped; the first written row wins.
func (s *Store) SaveArticleIgnore(ctx context.Context, a types.Article, embedding []float32) error {
	emb, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	var published string
	if !a.Published.IsZero() {
		published = a.Published.Format(time.RFC3339)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO articles (link, title, description, image, published, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.Link, a.Title, a.Description, a.Image, published, string(emb))
	if err != nil {
		return fmt.Errorf("failed to save article: %w", err)
	}

	return nil
}

// ListArticles returns every stored article, insertion order.
func (s *Store) ListArticles(ctx context.Context) ([]types.Article, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT link, title, description, image, published, embedding FROM articles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var articles []types.Article
	for rows.Next() {
		var a types.Article
		var published, embedding sql.NullString
		if err := rows.Scan(&a.Link, &a.Title, &a.Description, &a.Image, &published, &embedding); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		if published.Valid && published.String != "" {
			if t, err := time.Parse(time.RFC3339, published.String); err == nil {
				a.Published = t
			}
		}
		if embedding.Valid && embedding.String != "" {
			if err := json.Unmarshal([]byte(embedding.String), &a.Embedding); err != nil {
				log.WithFields(log.Fields{"link": a.Link}).Warnf("Skipping undecodable embedding: %v", err)
			}
		}
		articles = append(articles, a)
	}

	return articles, rows.Err()
}

// AddFeed registers a feed URL. Adding an existing URL is a no-op.
func (s *Store) AddFeed(ctx context.Context, url string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO feeds (url) VALUES (?)`, url); err != nil {
		return fmt.Errorf("failed to add feed: %w", err)
	}
	return nil
}

func (s *Store) ListFeeds(ctx context.Context) ([]Feed, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, url, last_fetched FROM feeds ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		var f Feed
		var lastFetched sql.NullString
		if err := rows.Scan(&f.ID, &f.Url, &lastFetched); err != nil {
			return nil, fmt.Errorf("failed to scan feed: %w", err)
		}
		if lastFetched.Valid && lastFetched.String != "" {
			if t, err := time.Parse(time.RFC3339, lastFetched.String); err == nil {
				f.LastFetched = t
			}
		}
		feeds = append(feeds, f)
	}

	return feeds, rows.Err()
}

func (s *Store) DeleteFeed(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	return nil
}

// TouchFeed records when a feed was last pulled.
func (s *Store) TouchFeed(ctx context.Context, url string, when time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE feeds SET last_fetched = ? WHERE url = ?`, when.Format(time.RFC3339), url)
	if err != nil {
		return fmt.Errorf("failed to update feed: %w", err)
	}
	return nil
}
