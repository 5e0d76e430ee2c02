package incident

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"CyberGuard/deploy/migrations"
	xerrors "CyberGuard/internal/errors"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLConfig 描述连接池参数。
type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MySQLStore 使用 MySQL 保存可疑指标。
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore 创建连接池并执行迁移。
func NewMySQLStore(ctx context.Context, cfg MySQLConfig) (*MySQLStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN 不能为空")
	}

	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "连接 MySQL 失败")
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(4)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(2)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "无法连接到 MySQL")
	}

	if err := migrate(ctx, db, migrations.Files); err != nil {
		db.Close()
		return nil, err
	}
	return &MySQLStore{db: db}, nil
}

const insertIncidentSQL = `INSERT INTO incidents (id, kind, indicator, note, source, created_at)
    VALUES (?, ?, ?, ?, ?, ?)`

const listIncidentSQL = `SELECT id, kind, indicator, note, source, created_at
    FROM incidents ORDER BY created_at DESC, id DESC LIMIT ?`

// Save 写入一条记录。
func (s *MySQLStore) Save(ctx context.Context, inc *Incident) error {
	if inc == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "incident 不能为空")
	}
	Prepare(inc)
	if _, err := s.db.ExecContext(ctx, insertIncidentSQL,
		inc.ID, inc.Kind, inc.Indicator, inc.Note, inc.Source, inc.CreatedAt,
	); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "写入 incident 失败")
	}
	return nil
}

// ListLatest 查询最近的若干条记录。
func (s *MySQLStore) ListLatest(ctx context.Context, limit int) ([]Incident, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, listIncidentSQL, limit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询 incident 失败")
	}
	defer rows.Close()

	var records []Incident
	for rows.Next() {
		var inc Incident
		if err := rows.Scan(&inc.ID, &inc.Kind, &inc.Indicator, &inc.Note, &inc.Source, &inc.CreatedAt); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析 incident 失败")
		}
		records = append(records, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历 incident 失败")
	}
	return records, nil
}

// Close 关闭底层数据库连接。
func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*MySQLStore)(nil)
