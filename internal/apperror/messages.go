package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Stream connection errors
	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketMessageError:    "WebSocket message error",
	CodeConnectionTimeout:        "Connection timed out waiting for data",
	CodeMaxReconnectsExceeded:    "Maximum reconnect attempts exceeded",

	// Parsing errors
	CodeParseError: "Failed to parse exchange message",

	// Order book errors
	CodeOrderBookError:     "Order book error",
	CodeSequenceMismatch:   "Sequence number gap detected",
	CodeBookNotInitialized: "Order book not yet initialized",

	// REST snapshot errors
	CodeRestAPIError:         "REST API request failed",
	CodeBinanceAPIError:      "Binance API error",
	CodeOrderbookFetchFailed: "Failed to fetch order book snapshot",

	// Publisher / IPC errors
	CodeIPCError:           "IPC publisher error",
	CodeSerializationError: "Failed to serialize message",

	// Circuit breaker errors
	CodeCircuitOpen:     "Circuit breaker is open",
	CodeCircuitHalfOpen: "Circuit breaker is half-open",
}
