package domain

import dErrors "sankalp/pkg/domain-errors"

// AssistanceDomain names the programme area a Q&A question or article belongs to.
// Invariant: the value must be one of the supported domains.
//
// Usage: construct via ParseAssistanceDomain at trust boundaries; direct casting
// bypasses validation.
type AssistanceDomain string

const (
	DomainLegal        AssistanceDomain = "legal"
	DomainWomenSupport AssistanceDomain = "women_support"
)

var validAssistanceDomains = map[AssistanceDomain]bool{
	DomainLegal:        true,
	DomainWomenSupport: true,
}

// ParseAssistanceDomain constructs an AssistanceDomain from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseAssistanceDomain(s string) (AssistanceDomain, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "domain cannot be empty")
	}
	d := AssistanceDomain(s)
	if !d.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid domain")
	}
	return d, nil
}

func (d AssistanceDomain) IsValid() bool {
	return validAssistanceDomains[d]
}

func (d AssistanceDomain) String() string {
	return string(d)
}
