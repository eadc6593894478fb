package api

import "fmt"

// Usage is the part of the usage endpoint's response the gauges need.
type Usage struct {
	FiveHour Window
	SevenDay Window
}

type Window struct {
	// Utilization is a percentage, 0-100.
	Utilization float64
	// ResetsAt is the ISO 8601 reset instant as sent by the server, or ""
	// when the window has not started.
	ResetsAt string
}

type usageResponse struct {
	FiveHour *usageWindow `json:"five_hour"`
	SevenDay *usageWindow `json:"seven_day"`
}

type usageWindow struct {
	Utilization *float64 `json:"utilization"`
	ResetsAt    *string  `json:"resets_at"`
}

type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
	ClientID     string `json:"client_id"`
	Scope        string `json:"scope"`
}

type refreshResponse struct {
	AccessToken  *string `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	ExpiresIn    *int64  `json:"expires_in"`
}

// NetworkError is a transport-level failure: DNS, connect, TLS, timeout.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s failed: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response.
type HTTPError struct {
	Op         string
	StatusCode int
}

func (e *HTTPError) Error() string { return fmt.Sprintf("%s failed: HTTP %d", e.Op, e.StatusCode) }

// ParseError is a 2xx response whose body could not be understood.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s response parse error: %v", e.Op, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }
