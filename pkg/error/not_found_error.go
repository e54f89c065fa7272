package error

import "net/http"

// NotFoundError maps missing publications, queues, posts and accounts
// to a 404 at the REST boundary.
type NotFoundError string

func (err NotFoundError) Error() string {
	return string(err)
}

func (err NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

func (err NotFoundError) StatusCode() int {
	return http.StatusNotFound
}
