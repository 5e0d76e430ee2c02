package incident

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"
	"time"
	"unicode"

	xerrors "CyberGuard/internal/errors"
)

const (
	schemaTableSQL = `CREATE TABLE IF NOT EXISTS schema_migrations (
        version VARCHAR(32) NOT NULL PRIMARY KEY,
        applied_at BIGINT NOT NULL
)`
	appliedVersionsSQL = `SELECT version FROM schema_migrations`
	recordVersionSQL   = `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`
)

// schemaStep 对应一个迁移文件，文件名的数字前缀即版本号。
type schemaStep struct {
	version string
	file    string
	sql     []string
}

// migrate 按版本顺序执行 fsys 中尚未应用的迁移，每个文件一个事务。
func migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	steps, err := readSchema(fsys)
	if err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "加载迁移文件失败")
	}
	if _, err := db.ExecContext(ctx, schemaTableSQL); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "创建 schema_migrations 表失败")
	}
	done, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, step := range steps {
		if done[step.version] {
			continue
		}
		err := inTx(ctx, db, func(tx *sql.Tx) error {
			for _, stmt := range step.sql {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx, recordVersionSQL, step.version, time.Now().Unix())
			return err
		})
		if err != nil {
			return xerrors.Wrap(xerrors.CodeStorageFailure, err, fmt.Sprintf("执行迁移 %s 失败", step.file),
				xerrors.WithMetadata("version", step.version))
		}
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, appliedVersionsSQL)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询 schema_migrations 失败")
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析 schema_migrations 失败")
		}
		done[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历 schema_migrations 失败")
	}
	return done, nil
}

// inTx 在事务中执行 fn，fn 出错时回滚。
func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// readSchema 读取 fsys 根目录下的 *.sql 文件。fs.Glob 的结果已按文件名排序。
func readSchema(fsys fs.FS) ([]schemaStep, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(names))
	steps := make([]schemaStep, 0, len(names))
	for _, name := range names {
		version := name[:len(name)-len(strings.TrimLeftFunc(name, unicode.IsDigit))]
		if version == "" {
			return nil, fmt.Errorf("迁移文件 %s 缺少数字版本前缀", name)
		}
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("迁移文件 %s 与 %s 版本号重复", name, prev)
		}
		seen[version] = name

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		stmts := statements(string(content))
		if len(stmts) == 0 {
			continue
		}
		steps = append(steps, schemaStep{version: version, file: name, sql: stmts})
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("没有可用的迁移文件")
	}
	return steps, nil
}

// statements 去掉 -- 注释行后按分号拆分语句。
func statements(content string) []string {
	var b strings.Builder
	for line := range strings.Lines(content) {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
	}

	var out []string
	for stmt := range strings.SplitSeq(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
