package storage

import "errors"

// Storage errors.
//
// ErrPersist marks local I/O failures while writing mirror output. It is
// fatal to the calling batch and never retried: a full disk or bad
// permissions will not heal by re-requesting the same page. Callers must
// check with errors.Is and stop the batch rather than continue silently.
var ErrPersist = errors.New("record persistence failed")
