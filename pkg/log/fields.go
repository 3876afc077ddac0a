package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Service
	FieldService = "service"

	// Resolution
	FieldQuery   = "query"
	FieldFilter  = "filter"
	FieldBackend = "backend"
	FieldVideoID = "video_id"
	FieldCount   = "count"
	FieldOutcome = "outcome"
)
