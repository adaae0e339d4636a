// Package detect implements deterministic multi-regulation violation
// detection: PCI-DSS PAN exposure, GDPR PII, and CCPA personal information.
// Detection is pure regex plus Luhn validation; no network, no state.
package detect

import (
	"regexp"
	"strings"
)

// Framework identifies the regulation a finding belongs to.
type Framework string

const (
	FrameworkPCIDSS Framework = "PCI-DSS"
	FrameworkGDPR   Framework = "GDPR"
	FrameworkCCPA   Framework = "CCPA"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// Finding is one detector hit inside a scanned text.
type Finding struct {
	Framework Framework
	Clause    string
	Kind      string // pan, email, phone, ip, ssn, drivers_license
	Match     string // matched text, masked for display
	Severity  Severity
}

// Detector scans text for violations of one regulation.
type Detector interface {
	Framework() Framework
	Scan(text string) []Finding
}

// Registry fans a scan out across all registered detectors.
type Registry struct {
	detectors []Detector
}

// NewRegistry returns a registry covering all supported regulations.
func NewRegistry() *Registry {
	return &Registry{detectors: []Detector{
		NewPANDetector(),
		NewGDPRDetector(),
		NewCCPADetector(),
	}}
}

// ScanAll runs every detector over text and returns the combined findings.
func (r *Registry) ScanAll(text string) []Finding {
	var all []Finding
	for _, d := range r.detectors {
		all = append(all, d.Scan(text)...)
	}
	return all
}

// Detectors returns the registered detectors in scan order.
func (r *Registry) Detectors() []Detector {
	return r.detectors
}

// Mask redacts all but the last four characters of a matched value.
func Mask(s string) string {
	clean := strings.NewReplacer(" ", "", "-", "").Replace(s)
	if len(clean) <= 4 {
		return strings.Repeat("*", len(clean))
	}
	return strings.Repeat("*", len(clean)-4) + clean[len(clean)-4:]
}

// PANDetector finds unmasked 16-digit primary account numbers.
type PANDetector struct {
	pan    *regexp.Regexp
	masked *regexp.Regexp
}

// NewPANDetector builds the PCI-DSS detector.
func NewPANDetector() *PANDetector {
	return &PANDetector{
		// 16 digits in groups of four, optional space or dash separators.
		pan: regexp.MustCompile(`\b(\d{4}[\s\-]?\d{4}[\s\-]?\d{4}[\s\-]?\d{4})\b`),
		// Already-masked PANs (**** **** **** 1234) mean the text is sanitized.
		masked: regexp.MustCompile(`[\*]{4}[\s\-]?[\*]{4}[\s\-]?[\*]{4}[\s\-]?\d{4}`),
	}
}

func (d *PANDetector) Framework() Framework { return FrameworkPCIDSS }

// Scan returns a finding per Luhn-valid PAN. Texts containing masked PANs
// are treated as intentionally sanitized and produce no findings.
func (d *PANDetector) Scan(text string) []Finding {
	if d.masked.MatchString(text) {
		return nil
	}
	var findings []Finding
	for _, match := range d.pan.FindAllString(text, -1) {
		if !LuhnValid(match) {
			continue
		}
		findings = append(findings, Finding{
			Framework: FrameworkPCIDSS,
			Clause:    "Req 3.4: PAN must be unreadable anywhere it is stored",
			Kind:      "pan",
			Match:     Mask(match),
			Severity:  SeverityCritical,
		})
	}
	return findings
}

// LuhnValid reports whether a 16-digit card number passes the Luhn checksum.
// Spaces and dashes are stripped before validation.
func LuhnValid(number string) bool {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(number)
	if len(digits) != 16 {
		return false
	}
	total := 0
	for i := 0; i < len(digits); i++ {
		c := digits[len(digits)-1-i]
		if c < '0' || c > '9' {
			return false
		}
		n := int(c - '0')
		if i%2 == 1 {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		total += n
	}
	return total%10 == 0
}

// GDPRDetector finds personal data: emails, phone numbers, IP addresses.
type GDPRDetector struct {
	email *regexp.Regexp
	phone *regexp.Regexp
	ip    *regexp.Regexp
}

// NewGDPRDetector builds the GDPR PII detector.
func NewGDPRDetector() *GDPRDetector {
	return &GDPRDetector{
		email: regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		phone: regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		ip:    regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
	}
}

func (d *GDPRDetector) Framework() Framework { return FrameworkGDPR }

func (d *GDPRDetector) Scan(text string) []Finding {
	var findings []Finding
	add := func(kind string, matches []string) {
		for _, m := range matches {
			findings = append(findings, Finding{
				Framework: FrameworkGDPR,
				Clause:    "Art 32: personal data requires appropriate security",
				Kind:      kind,
				Match:     Mask(m),
				Severity:  SeverityHigh,
			})
		}
	}
	add("email", d.email.FindAllString(text, -1))
	add("phone", d.phone.FindAllString(text, -1))
	add("ip", d.ip.FindAllString(text, -1))
	return findings
}

// CCPADetector finds California personal information: SSNs and driver's
// license numbers.
type CCPADetector struct {
	ssn *regexp.Regexp
	dl  *regexp.Regexp
}

// NewCCPADetector builds the CCPA detector.
func NewCCPADetector() *CCPADetector {
	return &CCPADetector{
		ssn: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		dl:  regexp.MustCompile(`\b[A-Z]{1,2}\d{5,8}\b`),
	}
}

func (d *CCPADetector) Framework() Framework { return FrameworkCCPA }

func (d *CCPADetector) Scan(text string) []Finding {
	var findings []Finding
	for _, m := range d.ssn.FindAllString(text, -1) {
		findings = append(findings, Finding{
			Framework: FrameworkCCPA,
			Clause:    "1798.81.5: reasonable security for personal information",
			Kind:      "ssn",
			Match:     Mask(m),
			Severity:  SeverityHigh,
		})
	}
	for _, m := range d.dl.FindAllString(text, -1) {
		findings = append(findings, Finding{
			Framework: FrameworkCCPA,
			Clause:    "1798.81.5: reasonable security for personal information",
			Kind:      "drivers_license",
			Match:     Mask(m),
			Severity:  SeverityMedium,
		})
	}
	return findings
}
