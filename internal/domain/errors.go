package domain

var (
	ErrNotFound            = errString("submission not found")
	ErrUpstreamUnavailable = errString("record source unavailable")
)

type errString string

func (e errString) Error() string { return string(e) }
