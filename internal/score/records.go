package score

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"drill-talk/internal/model"

	_ "modernc.org/sqlite"
)

// RecordStore 把每次终止的训练记录落进 SQLite，一次终止恰好写一条。
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore 打开（或创建）记录数据库并初始化表结构。
func NewRecordStore(path string) (*RecordStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create records directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open records db: %w", err)
	}

	// 写入量很小，单连接即可，顺带避免写争用。
	db.SetMaxOpenConns(1)

	s := &RecordStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *RecordStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS termination_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at INTEGER NOT NULL,
		trainee_name TEXT NOT NULL,
		course TEXT NOT NULL,
		turn_count INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		percentile INTEGER NOT NULL,
		transcript TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_course ON termination_records(course);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Save 写入一条终止记录。
func (s *RecordStore) Save(rec *model.TerminationRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO termination_records
		 (created_at, trainee_name, course, turn_count, outcome, percentile, transcript)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.When.Unix(), rec.TraineeName, rec.Course, rec.TurnCount,
		string(rec.Outcome), rec.Percentile, rec.Transcript,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// List 按课程读取全部终止记录，按写入顺序返回。
func (s *RecordStore) List(course string) ([]model.TerminationRecord, error) {
	rows, err := s.db.Query(
		`SELECT created_at, trainee_name, course, turn_count, outcome, percentile, transcript
		 FROM termination_records WHERE course = ? ORDER BY id`,
		course,
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []model.TerminationRecord
	for rows.Next() {
		var rec model.TerminationRecord
		var createdAt int64
		var outcome string
		if err := rows.Scan(&createdAt, &rec.TraineeName, &rec.Course, &rec.TurnCount,
			&outcome, &rec.Percentile, &rec.Transcript); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.When = time.Unix(createdAt, 0)
		rec.Outcome = model.Outcome(outcome)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LoadLeaderboard 启动时从历史记录重建排行榜。
// 只回放计入排名的结果，与写入侧的策略保持一致。
func (s *RecordStore) LoadLeaderboard(lb *Leaderboard) error {
	rows, err := s.db.Query(
		`SELECT course, turn_count, trainee_name FROM termination_records
		 WHERE outcome IN (?, ?) ORDER BY id`,
		string(model.OutcomePass), string(model.OutcomePassExcellent),
	)
	if err != nil {
		return fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var courseName, name string
		var turns int
		if err := rows.Scan(&courseName, &turns, &name); err != nil {
			return fmt.Errorf("scan leaderboard row: %w", err)
		}
		lb.Record(courseName, turns, name)
	}
	return rows.Err()
}

// Close 关闭数据库连接。
func (s *RecordStore) Close() error {
	return s.db.Close()
}
