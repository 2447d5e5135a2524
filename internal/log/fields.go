package log

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldTxID      = "transaction_id"
	FieldTitle     = "title"
	FieldAmount    = "amount"
	FieldCategory  = "category"
	FieldTxType    = "type"
	FieldCurrency  = "currency"
	FieldPartition = "partition"
	FieldCount     = "count"
)

// Components defines standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStore     = "store"
	ComponentRegistry  = "registry"
	ComponentStorage   = "storage"
	ComponentMigration = "migration"
	ComponentRates     = "rates"
	ComponentReceipt   = "receipt"
	ComponentSettings  = "settings"
	ComponentAccount   = "account"
)

// Operations defines standard operation names.
const (
	OpLoad    = "load"
	OpAdd     = "add"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpMove    = "move"
	OpRefresh = "refresh"
	OpMigrate = "migrate"
	OpFixup   = "fixup"
	OpConvert = "convert"
	OpParse   = "parse"
	OpStartup = "startup"
)
