package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Market-data specific error codes
const (
	// Stream connection errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketMessageError    Code = "WEBSOCKET_MESSAGE_ERROR"
	CodeConnectionTimeout        Code = "CONNECTION_TIMEOUT"
	CodeMaxReconnectsExceeded    Code = "MAX_RECONNECT_ATTEMPTS_EXCEEDED"

	// Parsing errors
	CodeParseError Code = "PARSE_ERROR"

	// Order book errors
	CodeOrderBookError     Code = "ORDER_BOOK_ERROR"
	CodeSequenceMismatch   Code = "SEQUENCE_MISMATCH"
	CodeBookNotInitialized Code = "BOOK_NOT_INITIALIZED"

	// REST snapshot errors
	CodeRestAPIError         Code = "REST_API_ERROR"
	CodeBinanceAPIError      Code = "BINANCE_API_ERROR"
	CodeOrderbookFetchFailed Code = "ORDERBOOK_FETCH_FAILED"

	// Publisher / IPC errors
	CodeIPCError           Code = "IPC_ERROR"
	CodeSerializationError Code = "SERIALIZATION_ERROR"

	// Circuit breaker errors
	CodeCircuitOpen     Code = "CIRCUIT_OPEN"
	CodeCircuitHalfOpen Code = "CIRCUIT_HALF_OPEN"
)
