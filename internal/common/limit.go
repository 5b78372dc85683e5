package common

import (
	"errors"
	"io"
)

var ErrTooLarge = errors.New("body exceeds size limit")

// ReadLimited reads all of r, failing with ErrTooLarge instead of truncating
// when r holds more than limit bytes.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
