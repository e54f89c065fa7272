package error

import "net/http"

// SchedulingError signals a delayed-job queue enqueue/removal failure.
type SchedulingError string

func (err SchedulingError) Error() string {
	return string(err)
}

func (err SchedulingError) ErrCode() string {
	return "SCHEDULING_ERROR"
}

func (err SchedulingError) StatusCode() int {
	return http.StatusInternalServerError
}
