package repository

import "errors"

// 対象が存在しない（論理削除済みも含む）
var ErrNotFound = errors.New("not found")

// 一意制約に当たった
var ErrDuplicate = errors.New("duplicate")
