package tokens

import (
	"math"
	"strings"
)

// Family identifies a group of models that share estimation constants.
type Family string

const (
	FamilyGPT35   Family = "gpt-3.5"
	FamilyGPT4o   Family = "gpt-4o"
	FamilyGPT4    Family = "gpt-4"
	FamilyGPT5    Family = "gpt-5"
	FamilyDefault Family = "default"
)

// Profile holds the estimation constants for a model family.
type Profile struct {
	Family          Family  `json:"family"`
	CharsPerToken   float64 `json:"charsPerToken"`
	MessageOverhead int     `json:"messageOverheadTokens"`
	SafetyBuffer    float64 `json:"safetyBufferMultiplier"`
}

type profileRow struct {
	prefix  string
	profile Profile
}

// profileTable is matched top to bottom; gpt-4o must precede gpt-4.
var profileTable = []profileRow{
	{"gpt-3.5", Profile{Family: FamilyGPT35, CharsPerToken: 4.0, MessageOverhead: 10, SafetyBuffer: 1.1}},
	{"gpt-4o", Profile{Family: FamilyGPT4o, CharsPerToken: 3.8, MessageOverhead: 12, SafetyBuffer: 1.15}},
	{"gpt-4", Profile{Family: FamilyGPT4, CharsPerToken: 4.0, MessageOverhead: 12, SafetyBuffer: 1.15}},
	{"gpt-5", Profile{Family: FamilyGPT5, CharsPerToken: 3.8, MessageOverhead: 12, SafetyBuffer: 1.15}},
}

// DefaultProfile is used for models that match no known family. It carries
// the largest safety buffer in the table.
var DefaultProfile = Profile{Family: FamilyDefault, CharsPerToken: 4.0, MessageOverhead: 10, SafetyBuffer: 1.2}

// ProfileFor returns the estimation profile for a model identifier.
func ProfileFor(model string) Profile {
	for _, row := range profileTable {
		if strings.HasPrefix(model, row.prefix) {
			return row.profile
		}
	}
	return DefaultProfile
}

// Profiles returns every known profile, table order first and the default last.
func Profiles() []Profile {
	out := make([]Profile, 0, len(profileTable)+1)
	for _, row := range profileTable {
		out = append(out, row.profile)
	}
	return append(out, DefaultProfile)
}

// Prefix returns the model-id prefix that selects the family, or "" for the
// default family.
func (f Family) Prefix() string {
	for _, row := range profileTable {
		if row.profile.Family == f {
			return row.prefix
		}
	}
	return ""
}

// Estimate returns the estimated token count of content under profile p.
// Only the byte length of content is inspected.
func Estimate(content string, p Profile) int {
	chars := float64(p.MessageOverhead + len(content))
	raw := math.Ceil(chars / p.CharsPerToken)
	return int(math.Ceil(raw * p.SafetyBuffer))
}

// Estimator binds a profile to a model so callers can estimate without
// repeating the lookup.
type Estimator struct {
	model   string
	profile Profile
}

// NewEstimator creates an Estimator for the given model identifier.
func NewEstimator(model string) Estimator {
	return Estimator{model: model, profile: ProfileFor(model)}
}

// NewEstimatorWithProfile creates an Estimator with an explicit profile.
func NewEstimatorWithProfile(p Profile) Estimator {
	return Estimator{model: string(p.Family), profile: p}
}

// Estimate returns the estimated token count of content.
func (e Estimator) Estimate(content string) int {
	return Estimate(content, e.profile)
}

// Model returns the model identifier the estimator was built for.
func (e Estimator) Model() string { return e.model }

// Profile returns the estimator's profile.
func (e Estimator) Profile() Profile { return e.profile }
