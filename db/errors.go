package db

import "errors"

// ErrNotFound is returned by single row queries that matched nothing, such as
// a latest report lookup on an empty table.
var ErrNotFound = errors.New("no matching row")

// IgnoreErrNotFound turns an empty result into a nil error.
func IgnoreErrNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
