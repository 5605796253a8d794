package api

import "encoding/json"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// QueryRequest carries one query expression in its JSON wire form
type QueryRequest struct {
	Expr json.RawMessage `json:"expr"`
}

// QueryResponse lists the primary keys matching a query
type QueryResponse struct {
	Keys  []string `json:"keys"`
	Count int      `json:"count"`
}

// RecordResponse wraps one decoded record
type RecordResponse struct {
	Key    string      `json:"key"`
	Record interface{} `json:"record"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port   int
	Bind   string
	APIKey string
}
