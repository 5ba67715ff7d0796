package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingColumn        ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidThreshold     ErrorCode = 104

	// Data/Resource errors (200-299)
	ErrCodeNoDataForSymbol ErrorCode = 200
	ErrCodeEmptyPanel      ErrorCode = 201
	ErrCodeEmptyReturns    ErrorCode = 202
	ErrCodeQueryFailed     ErrorCode = 203
	ErrCodeDuplicateDate   ErrorCode = 204

	// Benchmark errors (300-399)
	ErrCodeNoOverlappingDates ErrorCode = 300
	ErrCodeBenchmarkSchema    ErrorCode = 301
	ErrCodeBenchmarkEmpty     ErrorCode = 302

	// Regime analysis errors (400-499)
	ErrCodeRegimeNoDaily     ErrorCode = 400
	ErrCodeRegimeNoBenchmark ErrorCode = 401

	// Strategy errors (500-599)
	ErrCodeStrategyNotFound    ErrorCode = 500
	ErrCodeStrategyConfigError ErrorCode = 501

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
)
