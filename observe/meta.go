package observe

import "strconv"

// BatchMeta describes one renewal batch for telemetry purposes.
type BatchMeta struct {
	ID     string // Batch identifier (request id, run id)
	Source string // Originating surface: cli, http, schedule (optional)
	Items  int    // Number of input items
}

// SpanName returns the deterministic span name for this batch.
// Format: renewal.batch.<source> or renewal.batch
func (m BatchMeta) SpanName() string {
	if m.Source != "" {
		return "renewal.batch." + m.Source
	}
	return "renewal.batch"
}

// Label returns a short human readable label, used in log lines.
func (m BatchMeta) Label() string {
	if m.ID == "" {
		return m.SpanName() + "[" + strconv.Itoa(m.Items) + "]"
	}
	return m.ID
}
