package timeouts

import "time"

const (
	Probe         = 300 * time.Millisecond
	PollInterval  = 3 * time.Second
	SecondShort   = 2 * time.Second
	SecondDefault = 10 * time.Second
	SecondLong    = 30 * time.Second

	// DefaultTask bounds a single backend call unless the task carries its
	// own timeout. Advisory beyond that: nothing reaps in-flight work.
	DefaultTask = 5 * time.Minute

	// BackendHTTP is the http.Client timeout for backend API calls.
	BackendHTTP = 2 * time.Minute

	Shutdown = 5 * time.Second
)
