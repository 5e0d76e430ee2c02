package migrations

import "embed"

// Files 暴露 incidents 存储所需的全部 SQL 迁移文件。
//
//go:embed *.sql
var Files embed.FS
