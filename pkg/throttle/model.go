package throttle

// OperationID is the stable name of an API operation, for example
// "GET /things" or a service-defined operation type. It is the lookup key
// for quota configuration and part of every counter key.
type OperationID string

// QuotaSpec is the quota configured for one operation: a request budget
// for each of up to three fixed time windows. A limit of 0 means the
// window is unconstrained; it is never "zero requests allowed".
type QuotaSpec struct {
	PerMinute int64
	PerHour   int64
	PerDay    int64
}

// IsZero reports whether no window is constrained.
func (q QuotaSpec) IsZero() bool {
	return q.PerMinute == 0 && q.PerHour == 0 && q.PerDay == 0
}

// limits returns the per-window budgets in evaluator argument order.
func (q QuotaSpec) limits() [3]int64 {
	return [3]int64{q.PerMinute, q.PerHour, q.PerDay}
}

// Verdict is the outcome of one quota evaluation.
type Verdict int

const (
	// VerdictAllow lets the request proceed.
	VerdictAllow Verdict = iota
	// VerdictDeny rejects the request; the caller exceeded a window's budget.
	VerdictDeny
)

func (v Verdict) String() string {
	if v == VerdictDeny {
		return "deny"
	}
	return "allow"
}

// windowDef describes one fixed window the evaluator knows about. The
// order and values mirror the Lua script; the tag is embedded in bucket
// keys so each window granularity counts independently.
type windowDef struct {
	seconds int64
	tag     string
}

var windowDefs = [3]windowDef{
	{60, "m"},
	{3600, "h"},
	{86400, "d"},
}
