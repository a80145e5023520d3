package consts

const (
	TraceKey        = "traceId"
	TraceHeaderName = "X-Trace-Context"
)
