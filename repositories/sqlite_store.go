package repositories

import (
	"chat-relay/domain"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists messages in a SQLite file. The AUTOINCREMENT primary
// key gives every accepted message a globally unique, strictly increasing ID
// that is never reused, which is exactly the arrival-order contract the
// coordinator relies on.
type SQLiteStore struct {
	sqlDB *sql.DB
	log   *slog.Logger
}

// OpenSQLiteStore opens (or creates) the database file and applies embedded
// migrations. Synchronous mode stays at FULL so an Append that returned
// cannot be lost to a crash. The pragmas use modernc's `_pragma=name(value)`
// DSN syntax and apply to every pooled connection: WAL plus a busy timeout
// so appends to different rooms can run concurrently without SQLITE_BUSY.
func OpenSQLiteStore(path string, log *slog.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB, log: log}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, room domain.RoomID, sender, text string, sentAt int64) (domain.Message, error) {
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO messages (room, sender, text, ts) VALUES (?, ?, ?, ?)`,
		string(room), sender, text, sentAt,
	)
	if err != nil {
		return domain.Message{}, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Message{}, fmt.Errorf("assigned message id: %w", err)
	}
	return domain.Message{ID: id, Room: room, Sender: sender, Text: text, SentAt: sentAt}, nil
}

// History selects the newest rows first so the LIMIT applies to the most
// recent arrivals, then returns them oldest-first.
func (s *SQLiteStore) History(ctx context.Context, room domain.RoomID, limit int) ([]domain.Message, error) {
	limit = normalizeLimit(limit)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, room, sender, text, ts
		   FROM messages
		  WHERE room = ?
		  ORDER BY id DESC
		  LIMIT ?`,
		string(room), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var disk []diskMessage
	for rows.Next() {
		var dm diskMessage
		if err := rows.Scan(&dm.ID, &dm.Room, &dm.Sender, &dm.Text, &dm.Ts); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		disk = append(disk, dm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Flip DESC rows into ascending arrival order.
	for i, j := 0, len(disk)-1; i < j; i, j = i+1, j-1 {
		disk[i], disk[j] = disk[j], disk[i]
	}
	return toMessages(disk), nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
