package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuhnValid(t *testing.T) {
	cases := []struct {
		number string
		want   bool
	}{
		{"4111111111111111", true},
		{"4111 1111 1111 1111", true},
		{"4111-1111-1111-1111", true},
		{"4111111111111112", false}, // bad checksum
		{"1234567812345678", false},
		{"411111111111111", false}, // 15 digits
		{"abcd111111111111", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LuhnValid(tc.number), "number %q", tc.number)
	}
}

func TestPANDetectorFindsValidPAN(t *testing.T) {
	d := NewPANDetector()
	findings := d.Scan("Customer card number is 4111 1111 1111 1111 please update")
	require.Len(t, findings, 1)
	assert.Equal(t, FrameworkPCIDSS, findings[0].Framework)
	assert.Equal(t, SeverityCritical, findings[0].Severity)
	assert.Equal(t, "************1111", findings[0].Match)
}

func TestPANDetectorIgnoresLuhnInvalid(t *testing.T) {
	d := NewPANDetector()
	assert.Empty(t, d.Scan("order ref 1234 5678 1234 5678 shipped"))
}

func TestPANDetectorSkipsMaskedText(t *testing.T) {
	d := NewPANDetector()
	// A masked PAN in the text marks it sanitized even if a raw one follows.
	text := "card on file **** **** **** 1111, previously 4111111111111111"
	assert.Empty(t, d.Scan(text))
}

func TestGDPRDetectorFindsEmailAndPhone(t *testing.T) {
	d := NewGDPRDetector()
	findings := d.Scan("reach jane.doe@example.com or 415-555-1234")
	kinds := map[string]bool{}
	for _, f := range findings {
		assert.Equal(t, FrameworkGDPR, f.Framework)
		kinds[f.Kind] = true
	}
	assert.True(t, kinds["email"])
	assert.True(t, kinds["phone"])
}

func TestCCPADetectorFindsSSN(t *testing.T) {
	d := NewCCPADetector()
	findings := d.Scan("applicant SSN 123-45-6789 on file")
	require.NotEmpty(t, findings)
	assert.Equal(t, "ssn", findings[0].Kind)
	assert.Equal(t, "*****6789", findings[0].Match)
}

func TestRegistryScanAllCombinesFrameworks(t *testing.T) {
	r := NewRegistry()
	text := "card 4111111111111111, email a@b.io, SSN 123-45-6789"
	findings := r.ScanAll(text)

	frameworks := map[Framework]bool{}
	for _, f := range findings {
		frameworks[f.Framework] = true
	}
	assert.True(t, frameworks[FrameworkPCIDSS])
	assert.True(t, frameworks[FrameworkGDPR])
	assert.True(t, frameworks[FrameworkCCPA])
}

func TestRegistryCleanTextNoFindings(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.ScanAll("routine deploy finished without incident"))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "************1111", Mask("4111 1111 1111 1111"))
	assert.Equal(t, "***", Mask("abc"))
}
