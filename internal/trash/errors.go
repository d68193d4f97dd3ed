package trash

import "errors"

// ErrNotTrashed indicates a restore targeted a document that is
// not in the trash.
var ErrNotTrashed = errors.New("document is not in trash")
