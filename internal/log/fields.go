package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldJobID    = "job_id"
	FieldProvider = "provider"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStage     = "stage"

	// Source / artifact fields
	FieldSource = "source"
	FieldHost   = "host"
	FieldPath   = "path"
	FieldOutput = "output"

	// Counters
	FieldChannels   = "channels"
	FieldProgrammes = "programmes"
	FieldBytes      = "bytes"
	FieldDuration   = "duration_ms"
)
