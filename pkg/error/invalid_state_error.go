package error

import "net/http"

// InvalidStateError signals an operation attempted on a publication in a
// terminal or incompatible status (e.g. scheduling a cancelled record).
type InvalidStateError string

func (err InvalidStateError) Error() string {
	return string(err)
}

func (err InvalidStateError) ErrCode() string {
	return "INVALID_STATE_ERROR"
}

func (err InvalidStateError) StatusCode() int {
	return http.StatusConflict
}
