package versions

// -----------------------------------------------------------------------------
// Server version thresholds.
// A feature is available when the negotiated server version is >= its constant.
// -----------------------------------------------------------------------------

const (
	TradingClass         int32 = 68
	Linking              int32 = 70
	ModelsSupport        int32 = 103
	ReqHistogram         int32 = 119
	ReqHeadTimestamp     int32 = 121
	CancelHeadTimestamp  int32 = 123
	SyntRealtimeBars     int32 = 124
	HistoricalTicks      int32 = 124
	SmartDepth           int32 = 146
	MktDepthPrimExchange int32 = 149
	ErrorTime            int32 = 194
	HistoricalDataEnd    int32 = 196
)

// Range advertised during the handshake.
const (
	MinClientVersion int32 = 100
	MaxClientVersion int32 = 196
)

// Supports reports whether serverVersion has reached threshold.
func Supports(serverVersion, threshold int32) bool {
	return serverVersion >= threshold
}
