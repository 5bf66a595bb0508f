package permission

import "errors"

// ErrInvalidKey は権限キーが空の場合に返却されます。
var ErrInvalidKey = errors.New("permission: invalid key")
