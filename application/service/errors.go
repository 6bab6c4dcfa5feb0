package service

import "errors"

// ErrRecordPanic marks a record whose processing panicked.
var ErrRecordPanic = errors.New("record processing panicked")
