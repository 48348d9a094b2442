package orm

import (
	"github.com/iov-one/custody/errors"
)

// ErrInvalidIndex is returned when an index specified is invalid
var ErrInvalidIndex = errors.Register(109, "invalid index")
