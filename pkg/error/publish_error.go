package error

import "net/http"

// PublishError wraps adapter/network failures during a publish attempt.
type PublishError string

func (err PublishError) Error() string {
	return string(err)
}

func (err PublishError) ErrCode() string {
	return "PUBLISH_ERROR"
}

func (err PublishError) StatusCode() int {
	return http.StatusBadGateway
}
