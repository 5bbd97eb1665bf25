package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldSegment   = "segment"
	FieldMonth     = "month"
	FieldAnchor    = "anchor"
	FieldEndMonth  = "end_month"
	FieldRows      = "rows"
	FieldRequestID = "request_id"
	FieldBackend   = "backend"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentRoll    = "roll"
	ComponentStorage = "storage"
	ComponentSheets  = "sheets"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
)

// Operations defines standard operation names
const (
	OpAdvance  = "advance"
	OpExtract  = "extract"
	OpMerge    = "merge"
	OpAllocate = "allocate"
	OpPersist  = "persist"
)
