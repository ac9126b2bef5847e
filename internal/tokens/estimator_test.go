package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate_ExampleProfile(t *testing.T) {
	p := Profile{CharsPerToken: 4, MessageOverhead: 10, SafetyBuffer: 1.0}
	assert.Equal(t, 13, Estimate(strings.Repeat("x", 40), p))
}

func TestEstimate_KnownFamilies(t *testing.T) {
	tests := []struct {
		model  string
		length int
		want   int
	}{
		{"gpt-3.5-turbo", 0, 4},
		{"gpt-3.5-turbo", 30, 11},
		{"gpt-3.5-turbo", 1000, 279},
		{"gpt-4o-mini", 30, 14},
		{"gpt-4o", 1000, 308},
		{"gpt-4-turbo", 30, 13},
		{"gpt-4.1", 1000, 291},
		{"gpt-5", 100, 35},
		{"claude-sonnet-4", 30, 12},
		{"llama3", 1000, 304},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			e := NewEstimator(tt.model)
			assert.Equal(t, tt.want, e.Estimate(strings.Repeat("a", tt.length)))
		})
	}
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		model string
		want  Family
	}{
		{"gpt-3.5-turbo", FamilyGPT35},
		{"gpt-4o", FamilyGPT4o},
		{"gpt-4o-2024-08-06", FamilyGPT4o},
		{"gpt-4", FamilyGPT4},
		{"gpt-4.1-mini", FamilyGPT4},
		{"gpt-5.2-codex", FamilyGPT5},
		{"", FamilyDefault},
		{"GPT-4", FamilyDefault},
		{"claude-haiku-4-5", FamilyDefault},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProfileFor(tt.model).Family, "model %q", tt.model)
	}
}

func TestDefaultProfile_IsMostConservative(t *testing.T) {
	for _, p := range Profiles() {
		assert.LessOrEqual(t, p.SafetyBuffer, DefaultProfile.SafetyBuffer, "family %s", p.Family)
	}
}

func TestEstimate_MonotonicAndDeterministic(t *testing.T) {
	for _, p := range Profiles() {
		prev := 0
		for n := 0; n <= 2000; n += 7 {
			content := strings.Repeat("z", n)
			got := Estimate(content, p)
			assert.GreaterOrEqual(t, got, prev, "family %s length %d", p.Family, n)
			assert.Equal(t, got, Estimate(content, p))
			prev = got
		}
	}
}

func TestEstimate_IgnoresContentSemantics(t *testing.T) {
	p := ProfileFor("gpt-4")
	assert.Equal(t, Estimate("func main() {}", p), Estimate("abcdefghijklmn", p))
}

func TestProfiles_ReturnsCopy(t *testing.T) {
	ps := Profiles()
	ps[0].CharsPerToken = 99
	assert.Equal(t, 4.0, ProfileFor("gpt-3.5-turbo").CharsPerToken)
	assert.Equal(t, FamilyDefault, ps[len(ps)-1].Family)
}

func TestFamily_Prefix(t *testing.T) {
	assert.Equal(t, "gpt-4o", FamilyGPT4o.Prefix())
	assert.Equal(t, "", FamilyDefault.Prefix())
}
