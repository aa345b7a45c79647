package shell

import "time"

const (
	logMsgQueryHandled = "query handled"
	logMsgQueryFailed  = "query failed"

	logAttrQueryType  = "query_type"
	logAttrEventCount = "event_count"
	logAttrDurationMS = "duration_ms"
	logAttrError      = "error"
)

// LogQueryHandled logs a successful query at debug level. A nil logger is allowed.
func LogQueryHandled(logger Logger, queryType string, eventCount int, duration time.Duration) {
	if logger == nil {
		return
	}

	logger.Debug(
		logMsgQueryHandled,
		logAttrQueryType, queryType,
		logAttrEventCount, eventCount,
		logAttrDurationMS, float64(duration.Microseconds())/1000.0,
	)
}

// LogQueryFailed logs a failed query at error level. A nil logger is allowed.
func LogQueryFailed(logger Logger, queryType string, err error) {
	if logger == nil {
		return
	}

	logger.Error(logMsgQueryFailed, logAttrQueryType, queryType, logAttrError, err.Error())
}
