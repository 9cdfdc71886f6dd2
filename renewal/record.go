package renewal

import "maps"

// Annotation fields written into a Record when metadata is enabled.
const (
	FieldKey              = "redis_key"
	FieldExists           = "redis_exists"
	FieldTTL              = "redis_ttl"
	FieldTTLBefore        = "redis_ttl_before"
	FieldTTLAfter         = "redis_ttl_after"
	FieldRenewalThreshold = "redis_renewal_threshold"
	FieldNeedsRenewal     = "redis_needs_renewal"
	FieldRenewed          = "redis_renewed"
	FieldRenewalTTL       = "redis_renewal_ttl"
	FieldPermanent        = "redis_permanent"
	FieldExpired          = "redis_expired"
)

// Item is one key to evaluate together with its configuration and the
// payload that is copied forward into its Record.
type Item struct {
	Key     string
	Config  Config
	Payload map[string]any
}

// Record is the annotated output for one item: a shallow copy of the input
// payload plus the value and metadata fields.
type Record map[string]any

// newRecord shallow-copies payload.
func newRecord(payload map[string]any) Record {
	rec := make(Record, len(payload)+8)
	maps.Copy(rec, payload)
	return rec
}

// Result holds the two outcome channels of a batch.
type Result struct {
	Renewed    []Record `json:"renewed"`
	NotRenewed []Record `json:"not_renewed"`
}

func newResult(n int) *Result {
	return &Result{
		Renewed:    make([]Record, 0, n),
		NotRenewed: make([]Record, 0, n),
	}
}

// Len returns the total number of records in both channels.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Renewed) + len(r.NotRenewed)
}

// Counts returns the sizes of the two channels.
func (r *Result) Counts() (renewed, notRenewed int) {
	if r == nil {
		return 0, 0
	}
	return len(r.Renewed), len(r.NotRenewed)
}
