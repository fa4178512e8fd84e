package track

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	//go:embed sql/*
	f embed.FS

	upsertTrack = `INSERT INTO track (id, status, url, title, artist, album, genre, cover_art_url, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			url = excluded.url,
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			genre = excluded.genre,
			cover_art_url = excluded.cover_art_url,
			updated_at = excluded.updated_at
	`

	upsertStatus = `INSERT INTO track (id, status, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at
	`

	selectTrack = `SELECT id, status, url, title, artist, album, genre, cover_art_url, updated_at
		FROM track WHERE id = ?
	`

	countByStatus = `SELECT status, COUNT(*) FROM track GROUP BY status`
)

// SQLStore keeps tracks in sqlite or postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// GetDB opens a database handle for the driver.
func GetDB(driver, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("dsn not specified")
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", driver)
	}
	return conn, nil
}

// NewSQLStore opens the database and creates the schema when missing.
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, errors.Errorf("unsupported sql driver: %s", driver)
	}

	db, err := GetDB(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) init(ctx context.Context) error {
	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read the schema creation file")
	}

	// not every driver accepts several statements in one Exec
	for _, stmt := range strings.Split(string(b), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to create %s schema", s.driver)
		}
	}
	slog.Debug("track schema ready", "driver", s.driver)
	return nil
}

// rebind converts ? placeholders to $n for postgres.
func (s *SQLStore) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Track, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	var t Track
	var updated int64
	err := s.db.QueryRowContext(ctx, s.rebind(selectTrack), id).Scan(
		&t.ID, &t.Status, &t.URL, &t.Title, &t.Artist, &t.Album, &t.Genre, &t.CoverArtURL, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "id: %s", id)
		}
		return nil, errors.Wrapf(err, "failed to select track: %s", id)
	}
	t.UpdatedAt = time.UnixMilli(updated).UTC()
	return &t, nil
}

func (s *SQLStore) Put(ctx context.Context, t *Track) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}
	if err := validate(t); err != nil {
		return err
	}

	t.UpdatedAt = time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, s.rebind(upsertTrack),
		t.ID, t.Status, t.URL, t.Title, t.Artist, t.Album, t.Genre, t.CoverArtURL,
		t.UpdatedAt.UnixMilli()); err != nil {
		return errors.Wrapf(err, "failed to upsert track: %s", t.ID)
	}
	return nil
}

func (s *SQLStore) SetStatus(ctx context.Context, id, status string) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}
	if err := validateStatus(id, status); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, s.rebind(upsertStatus),
		id, status, time.Now().UTC().UnixMilli()); err != nil {
		return errors.Wrapf(err, "failed to update status for track: %s", id)
	}
	return nil
}

// CountByStatus returns the number of tracks in each status.
func (s *SQLStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNotInitialized
	}

	rows, err := s.db.QueryContext(ctx, countByStatus)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count tracks")
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate rows")
	}
	return counts, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
