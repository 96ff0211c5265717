package internaldefs

import (
	"strconv"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

// Prefix is prepended to every exported metric name.
const Prefix = "gosession_"

// BucketCount is the number of latency buckets, the last one unbounded.
const BucketCount = len(goSession.HistogramBucketBounds) + 1

// CounterDef names one exported counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one exported histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

var counterHelp = map[goSession.MetricID]string{
	goSession.MetricLoginSuccess:      "Successful logins.",
	goSession.MetricLoginFailure:      "Logins rejected for bad credentials.",
	goSession.MetricLoginRateLimited:  "Logins refused by the failed-attempt throttle.",
	goSession.MetricRegisterSuccess:   "Accounts registered.",
	goSession.MetricRegisterDuplicate: "Registrations rejected because the email exists.",
	goSession.MetricRegisterInvalid:   "Registrations rejected by input validation.",
	goSession.MetricSessionCreated:    "Sessions issued.",
	goSession.MetricValidateSuccess:   "Tokens accepted by validation.",
	goSession.MetricValidateFailure:   "Tokens rejected by validation.",
	goSession.MetricSessionRevoked:    "Tokens rejected because the session record was gone or replaced.",
	goSession.MetricRefreshSuccess:    "Access tokens minted by refresh.",
	goSession.MetricRefreshFailure:    "Refresh attempts rejected.",
	goSession.MetricLogout:            "Logout operations.",
	goSession.MetricStoreUnavailable:  "Session store calls that failed or timed out.",
}

// CounterDefs lists every counter in MetricID order.
var CounterDefs = buildCounterDefs()

// HistogramDefs lists the latency histograms.
var HistogramDefs = []HistogramDef{
	{
		ID:   goSession.MetricValidateLatency,
		Name: Prefix + goSession.MetricValidateLatency.String() + "_seconds",
		Help: "Access token validation latency.",
	},
}

// AuditDroppedName is the counter for audit events lost to backpressure.
const AuditDroppedName = Prefix + "audit_dropped_total"

// HistogramBounds are the Prometheus le labels, in seconds, ending with +Inf.
var HistogramBounds = buildBounds(func(s string) string { return s }, "+Inf")

// HistogramBoundSuffix are the bounds in a form usable inside instrument names.
var HistogramBoundSuffix = buildBounds(func(s string) string { return strings.ReplaceAll(s, ".", "_") }, "inf")

func buildCounterDefs() []CounterDef {
	defs := make([]CounterDef, 0, goSession.MetricIDCount)
	for id := goSession.MetricID(0); int(id) < goSession.MetricIDCount; id++ {
		help, ok := counterHelp[id]
		if !ok {
			continue
		}
		defs = append(defs, CounterDef{ID: id, Name: Prefix + id.String() + "_total", Help: help})
	}
	return defs
}

func buildBounds(format func(string) string, last string) []string {
	out := make([]string, 0, BucketCount)
	for _, bound := range goSession.HistogramBucketBounds {
		out = append(out, format(strconv.FormatFloat(bound.Seconds(), 'f', -1, 64)))
	}
	return append(out, last)
}

// NormalizeBuckets pads or truncates raw to BucketCount entries.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
