package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"fastrack/internal/tracking/application"
	tracking "fastrack/internal/tracking/domain"
)

// DefaultRangeDays is the window of a range report without explicit dates.
const DefaultRangeDays = application.DefaultRangeDays

// policyFile is the YAML layout of the report policy.
type policyFile struct {
	DeliveryKinds []string `yaml:"delivery_kinds"`
	ReturnKinds   []string `yaml:"return_kinds"`
	OverdueDays   int      `yaml:"overdue_days"`
	DateLayouts   []string `yaml:"date_layouts"`
	TimeLayouts   []string `yaml:"time_layouts"`
	RangeDays     int      `yaml:"range_days"`
}

// ReportPolicy bundles movement classification and parsing settings.
type ReportPolicy struct {
	Policy      tracking.Policy
	DateLayouts []string
	TimeLayouts []string
	RangeDays   int
}

// DefaultReportPolicy returns the built-in policy.
func DefaultReportPolicy() ReportPolicy {
	return ReportPolicy{
		Policy:      tracking.DefaultPolicy(),
		DateLayouts: append([]string(nil), tracking.DefaultDateLayouts...),
		TimeLayouts: append([]string(nil), tracking.DefaultTimeLayouts...),
		RangeDays:   DefaultRangeDays,
	}
}

// LoadReportPolicy reads a YAML policy file over the defaults.
// An empty path returns the defaults.
func LoadReportPolicy(path string) (ReportPolicy, error) {
	policy := DefaultReportPolicy()
	if path == "" {
		return policy, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("report policy: %w", err)
	}
	return ParseReportPolicy(data)
}

// ParseReportPolicy decodes YAML policy data over the defaults.
func ParseReportPolicy(data []byte) (ReportPolicy, error) {
	policy := DefaultReportPolicy()
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return policy, fmt.Errorf("report policy: %w", err)
	}
	if len(file.DeliveryKinds) > 0 {
		policy.Policy.DeliveryKinds = kinds(file.DeliveryKinds)
	}
	if len(file.ReturnKinds) > 0 {
		policy.Policy.ReturnKinds = kinds(file.ReturnKinds)
	}
	if file.OverdueDays < 0 || file.RangeDays < 0 {
		return policy, fmt.Errorf("report policy: %w: negative days", tracking.ErrInvalidPolicy)
	}
	if file.OverdueDays > 0 {
		policy.Policy.OverdueAfter = time.Duration(file.OverdueDays) * 24 * time.Hour
	}
	if len(file.DateLayouts) > 0 {
		policy.DateLayouts = file.DateLayouts
	}
	if len(file.TimeLayouts) > 0 {
		policy.TimeLayouts = file.TimeLayouts
	}
	if file.RangeDays > 0 {
		policy.RangeDays = file.RangeDays
	}
	if err := policy.Policy.Validate(); err != nil {
		return policy, err
	}
	return policy, nil
}

// Normalizer builds the date/time normalizer for loc.
func (p ReportPolicy) Normalizer(loc *time.Location) tracking.Normalizer {
	return tracking.NewNormalizer(p.DateLayouts, p.TimeLayouts, loc)
}

func kinds(values []string) []tracking.Kind {
	out := make([]tracking.Kind, 0, len(values))
	for _, value := range values {
		if kind := tracking.NormalizeKind(value); kind != "" {
			out = append(out, kind)
		}
	}
	return out
}
