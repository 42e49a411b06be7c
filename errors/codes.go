package errors

// ERR identifies the category of an Error. Codes are stable across releases
// so callers can switch on them instead of matching message text.
type ERR int32

const (
	ERR_UNKNOWN ERR = iota
	ERR_INVALID_ARGUMENT
	ERR_NOT_FOUND
	ERR_PROCESSING
	ERR_CONFIGURATION
	ERR_CONTEXT_CANCELED

	// Block-related.
	ERR_BLOCK_NOT_FOUND
	ERR_BLOCK_INVALID
	ERR_BLOCK_EXISTS
	ERR_BLOCK_ORPHAN

	// Transaction-related.
	ERR_TX_NOT_FOUND
	ERR_TX_INVALID
	ERR_TX_INVALID_DOUBLE_SPEND
	ERR_TX_ALREADY_EXISTS
	ERR_TX_ORPHAN
	ERR_TX_MISSING_PARENT

	// Storage / persistence.
	ERR_STORAGE_UNAVAILABLE
	ERR_STORAGE_ERROR
	ERR_STORAGE_CORRUPT

	// Fatal, operator-notified aborts.
	ERR_ABORT
)

var errName = map[ERR]string{
	ERR_UNKNOWN:                 "unknown error",
	ERR_INVALID_ARGUMENT:        "invalid argument",
	ERR_NOT_FOUND:               "not found",
	ERR_PROCESSING:              "error processing",
	ERR_CONFIGURATION:           "configuration error",
	ERR_CONTEXT_CANCELED:        "context canceled",
	ERR_BLOCK_NOT_FOUND:         "block not found",
	ERR_BLOCK_INVALID:           "block invalid",
	ERR_BLOCK_EXISTS:            "block exists",
	ERR_BLOCK_ORPHAN:            "block orphan",
	ERR_TX_NOT_FOUND:            "tx not found",
	ERR_TX_INVALID:              "tx invalid",
	ERR_TX_INVALID_DOUBLE_SPEND: "tx invalid double spend",
	ERR_TX_ALREADY_EXISTS:       "tx already exists",
	ERR_TX_ORPHAN:               "tx orphan",
	ERR_TX_MISSING_PARENT:       "tx missing parent",
	ERR_STORAGE_UNAVAILABLE:     "storage unavailable",
	ERR_STORAGE_ERROR:           "storage error",
	ERR_STORAGE_CORRUPT:         "storage corrupt",
	ERR_ABORT:                   "fatal abort",
}

func (c ERR) String() string {
	if name, ok := errName[c]; ok {
		return name
	}

	return "unrecognized error code"
}
