package renewal

import (
	"errors"
	"fmt"
)

// Threshold bounds, inclusive.
const (
	MinThreshold = 1
	MaxThreshold = 99
)

// MaxTTL is the largest renewal or original TTL in seconds. Redis keeps
// expiries as absolute Unix milliseconds in an int64, so the bound leaves
// room for the current time after scaling.
const MaxTTL int64 = 1 << 52

// Config configures the renewal decision for one item.
type Config struct {
	// RenewalTTL is the TTL in seconds applied on renewal.
	RenewalTTL int64 `json:"renewal_ttl" mapstructure:"renewal_ttl"`

	// RenewalThreshold is the percentage of the original TTL at or below
	// which a key is renewed. Valid range: 1-99.
	RenewalThreshold int `json:"renewal_threshold" mapstructure:"renewal_threshold"`

	// OriginalTTL is the key's TTL at creation, when the caller knows it.
	// Zero means unknown, in which case RenewalTTL stands in for it.
	OriginalTTL int64 `json:"original_ttl,omitempty" mapstructure:"original_ttl"`

	// IncludeValue copies the stored value into the record under OutputProperty.
	IncludeValue bool `json:"include_value" mapstructure:"include_value"`

	// OutputProperty names the record field holding the value.
	OutputProperty string `json:"output_property,omitempty" mapstructure:"output_property"`

	// ParseJSON decodes the stored value as JSON before copying it.
	ParseJSON bool `json:"parse_json" mapstructure:"parse_json"`

	// IncludeMetadata adds the redis_* annotation fields to the record.
	IncludeMetadata bool `json:"include_metadata" mapstructure:"include_metadata"`
}

// DefaultConfig returns a one hour renewal TTL with a 20% threshold and
// metadata enabled.
func DefaultConfig() Config {
	return Config{
		RenewalTTL:       3600,
		RenewalThreshold: 20,
		OutputProperty:   "value",
		IncludeMetadata:  true,
	}
}

// Validate checks the configuration. The engine does not call it; hosts
// validate before handing items over (see Batch.Resolve).
func (c Config) Validate() error {
	var errs []error
	if c.RenewalTTL <= 0 {
		errs = append(errs, fmt.Errorf("renewal_ttl must be positive, got %d", c.RenewalTTL))
	} else if c.RenewalTTL > MaxTTL {
		errs = append(errs, fmt.Errorf("renewal_ttl must not exceed %d, got %d", MaxTTL, c.RenewalTTL))
	}
	if c.RenewalThreshold < MinThreshold || c.RenewalThreshold > MaxThreshold {
		errs = append(errs, fmt.Errorf("renewal_threshold must be between %d and %d, got %d",
			MinThreshold, MaxThreshold, c.RenewalThreshold))
	}
	if c.OriginalTTL < 0 {
		errs = append(errs, fmt.Errorf("original_ttl must not be negative, got %d", c.OriginalTTL))
	} else if c.OriginalTTL > MaxTTL {
		errs = append(errs, fmt.Errorf("original_ttl must not exceed %d, got %d", MaxTTL, c.OriginalTTL))
	}
	if c.IncludeValue && c.OutputProperty == "" {
		errs = append(errs, errors.New("output_property is required when include_value is set"))
	}
	return errors.Join(errs...)
}

// BaseTTL returns the TTL the threshold percentage applies to.
func (c Config) BaseTTL() int64 {
	if c.OriginalTTL > 0 {
		return c.OriginalTTL
	}
	return c.RenewalTTL
}

// ThresholdSeconds returns the remaining TTL at or below which a key needs
// renewal: BaseTTL * RenewalThreshold / 100, rounded down.
func (c Config) ThresholdSeconds() int64 {
	return c.BaseTTL() * int64(c.RenewalThreshold) / 100
}

// NeedsRenewal reports whether a key with remaining seconds left must be renewed.
func (c Config) NeedsRenewal(remaining int64) bool {
	return remaining <= c.ThresholdSeconds()
}

// Overrides is a partial Config; set fields replace the batch defaults.
type Overrides struct {
	RenewalTTL       *int64  `json:"renewal_ttl,omitempty"`
	RenewalThreshold *int    `json:"renewal_threshold,omitempty"`
	OriginalTTL      *int64  `json:"original_ttl,omitempty"`
	IncludeValue     *bool   `json:"include_value,omitempty"`
	OutputProperty   *string `json:"output_property,omitempty"`
	ParseJSON        *bool   `json:"parse_json,omitempty"`
	IncludeMetadata  *bool   `json:"include_metadata,omitempty"`
}

// Apply returns base with the set fields of o applied.
func (o *Overrides) Apply(base Config) Config {
	if o == nil {
		return base
	}
	if o.RenewalTTL != nil {
		base.RenewalTTL = *o.RenewalTTL
	}
	if o.RenewalThreshold != nil {
		base.RenewalThreshold = *o.RenewalThreshold
	}
	if o.OriginalTTL != nil {
		base.OriginalTTL = *o.OriginalTTL
	}
	if o.IncludeValue != nil {
		base.IncludeValue = *o.IncludeValue
	}
	if o.OutputProperty != nil {
		base.OutputProperty = *o.OutputProperty
	}
	if o.ParseJSON != nil {
		base.ParseJSON = *o.ParseJSON
	}
	if o.IncludeMetadata != nil {
		base.IncludeMetadata = *o.IncludeMetadata
	}
	return base
}
