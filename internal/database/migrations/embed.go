package migrations

import "embed"

// Files 内嵌的SQL迁移文件，按驱动分目录
//
//go:embed sqlite/*.sql postgres/*.sql
var Files embed.FS
