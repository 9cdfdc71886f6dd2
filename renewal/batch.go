package renewal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxBatchItems bounds the number of items accepted in one decoded batch.
const MaxBatchItems = 10000

// Batch is the wire form of a renewal request as supplied by a host
// (CLI input file or HTTP body).
type Batch struct {
	// ID optionally identifies the batch in logs and traces.
	ID string `json:"id,omitempty"`

	// Defaults applies to every item unless overridden.
	Defaults Config `json:"defaults"`

	// Items are evaluated in order.
	Items []BatchItem `json:"items"`
}

// BatchItem is one input item.
type BatchItem struct {
	Key    string         `json:"key"`
	Config *Overrides     `json:"config,omitempty"`
	JSON   map[string]any `json:"json,omitempty"`
}

// DecodeBatch reads a Batch from r. Fields absent from the document keep
// the values in defaults. Decode failures are configuration errors.
func DecodeBatch(r io.Reader, defaults Config) (*Batch, error) {
	b := &Batch{Defaults: defaults}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(b); err != nil {
		return nil, configError(-1, "", "decode", err)
	}
	if len(b.Items) > MaxBatchItems {
		return nil, configError(-1, "", "decode",
			fmt.Errorf("batch has %d items, limit is %d", len(b.Items), MaxBatchItems))
	}
	return b, nil
}

// Resolve overlays per-item overrides on the defaults and validates each
// resulting Config. Keys are not checked here; the engine rejects empty keys.
func (b *Batch) Resolve() ([]Item, error) {
	if b == nil {
		return nil, configError(-1, "", "resolve", errors.New("batch is nil"))
	}
	items := make([]Item, len(b.Items))
	for i, bi := range b.Items {
		cfg := bi.Config.Apply(b.Defaults)
		if err := cfg.Validate(); err != nil {
			return nil, configError(i, bi.Key, "validate", err)
		}
		items[i] = Item{Key: bi.Key, Config: cfg, Payload: bi.JSON}
	}
	return items, nil
}
