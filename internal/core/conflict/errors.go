package conflict

import "errors"

// ErrInvalidMemberID はメンバー ID が空の場合に返却されます。
var ErrInvalidMemberID = errors.New("conflict: invalid member id")
