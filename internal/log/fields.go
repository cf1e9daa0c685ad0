package log

// Common field names for structured logging
const (
	FieldComponent         = "component"
	FieldRequestID         = "request_id"
	FieldClientIP          = "client_ip"
	FieldMethod            = "method"
	FieldPath              = "path"
	FieldQuery             = "query"
	FieldStatusCode        = "status_code"
	FieldDuration          = "duration_ms"
	FieldUserAgent         = "user_agent"
	FieldSuccess           = "success"
	FieldError             = "error"
	FieldOperation         = "operation"
	FieldAction            = "action"
	FieldRevision          = "revision"
	FieldMonth             = "month"
	FieldIndex             = "index"
	FieldExpenseName       = "expense_name"
	FieldAmount            = "amount"
	FieldPrimaryCategory   = "primary_category"
	FieldSecondaryCategory = "secondary_category"
	FieldEntries           = "entries"
	FieldBytes             = "bytes"
	FieldKey               = "key"
	FieldFile              = "file"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStore     = "store"
	ComponentPersist   = "persist"
	ComponentWorkbook  = "workbook"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentBackup    = "backup"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpImport   = "import"
	OpExport   = "export"
	OpHydrate  = "hydrate"
	OpPersist  = "persist"
	OpNotify   = "notify"
	OpBackup   = "backup"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithMonth adds the month key.
func (f LogFields) WithMonth(month string) LogFields {
	f[FieldMonth] = month
	return f
}

// WithRevision adds the store revision a log line refers to.
func (f LogFields) WithRevision(rev uint64) LogFields {
	f[FieldRevision] = rev
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(name string, amount float64, primary, secondary string) LogFields {
	f[FieldExpenseName] = name
	f[FieldAmount] = amount
	f[FieldPrimaryCategory] = primary
	f[FieldSecondaryCategory] = secondary
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value arguments. The component
// key is left out because Logger adds it itself.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		if k == FieldComponent {
			continue
		}
		slice = append(slice, k, v)
	}
	return slice
}
