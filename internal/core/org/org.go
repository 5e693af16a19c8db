// Package org resolves school branding from an ordered list of sources and
// records a probe report of every source considered.
// This is part of the Functional Core - remote calls are made by the caller
// and passed in as results.
package org

import (
	"net/url"
	"strings"
	"unicode"
)

// Source identifies which tier produced the branding.
type Source string

const (
	SourceUserOverride Source = "user_override"
	SourceAPITheme     Source = "api_theme"
	SourceDomainGuess  Source = "domain_guess"
)

// Outcome is the result tag of a single probe attempt.
type Outcome string

const (
	OutcomeSelected     Outcome = "selected"
	OutcomeSkipped      Outcome = "skipped"
	OutcomeSuccess      Outcome = "success"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeForbidden    Outcome = "forbidden"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeTimeout      Outcome = "timeout"
	OutcomeNetworkError Outcome = "network_error"
	OutcomeError        Outcome = "error"
)

// Probe endpoint labels, in report order.
const (
	EndpointOverride = "override"
	EndpointAccounts = "GET /api/v1/accounts"
	EndpointTheme    = "GET /api/v1/accounts/self/theme"
)

// SourceOrder is the fixed precedence of the tiers.
var SourceOrder = []string{"override", "api/theme", "domain_guess"}

// Info is the resolved branding.
type Info struct {
	SchoolName string `json:"school_name,omitempty"`
	LogoURL    string `json:"logo_url,omitempty"`
	Source     Source `json:"source"`
}

// Attempt records one probe: which endpoint, whether it was needed, what
// came back, and any partial values it produced.
type Attempt struct {
	Endpoint   string  `json:"endpoint"`
	Needed     bool    `json:"needed"`
	Outcome    Outcome `json:"outcome"`
	Detail     string  `json:"detail"`
	SchoolName string  `json:"school_name,omitempty"`
	LogoURL    string  `json:"logo_url,omitempty"`
}

// Report is the ordered diagnostic trace of a resolution.
type Report struct {
	SourceOrder  []string  `json:"source_order"`
	Attempts     []Attempt `json:"attempts"`
	WinnerSource Source    `json:"winner_source"`
	WinnerReason string    `json:"winner_reason"`
}

// Overrides are the user-configured branding values.
type Overrides struct {
	SchoolName string
	LogoURL    string
}

// Present reports whether any override is set.
func (o Overrides) Present() bool {
	return o.SchoolName != "" || o.LogoURL != ""
}

// CallError describes a failed remote call without tying the core to a client.
type CallError struct {
	StatusCode int
	Kind       string // timeout, network, http_auth, http, request
	Message    string
}

// AccountsResult is the outcome of the account listing call.
type AccountsResult struct {
	Name        string // first account's name
	DisplayName string // first account's display name
	Err         *CallError
}

// ThemeResult is the outcome of the branding theme call.
type ThemeResult struct {
	Logo      string
	LogoURL   string
	BrandLogo string
	Err       *CallError
}

// ResolveInput contains everything the resolver needs. Accounts and Theme
// are nil when the calls were not made.
type ResolveInput struct {
	BaseURL         string
	Overrides       Overrides
	ClientAvailable bool
	Accounts        *AccountsResult
	Theme           *ThemeResult
}

// NeedsAPI reports whether the API tier should be probed at all.
func NeedsAPI(o Overrides, clientAvailable bool) bool {
	return !o.Present() && clientAvailable
}

// Resolve applies the three tiers in order: override, API/theme, domain guess.
func Resolve(in ResolveInput) (Info, Report) {
	report := Report{SourceOrder: append([]string(nil), SourceOrder...)}

	if in.Overrides.Present() {
		report.Attempts = append(report.Attempts,
			Attempt{
				Endpoint:   EndpointOverride,
				Needed:     true,
				Outcome:    OutcomeSelected,
				Detail:     "user override present; API/theme not needed",
				SchoolName: in.Overrides.SchoolName,
				LogoURL:    in.Overrides.LogoURL,
			},
			Attempt{Endpoint: EndpointAccounts, Needed: false, Outcome: OutcomeSkipped, Detail: "skipped due to user override"},
			Attempt{Endpoint: EndpointTheme, Needed: false, Outcome: OutcomeSkipped, Detail: "skipped due to user override"},
		)
		report.WinnerSource = SourceUserOverride
		report.WinnerReason = "override has highest precedence"
		return Info{SchoolName: in.Overrides.SchoolName, LogoURL: in.Overrides.LogoURL, Source: SourceUserOverride}, report
	}

	var school, logo string
	if in.ClientAvailable {
		if a := in.Accounts; a != nil {
			attempt := Attempt{Endpoint: EndpointAccounts, Needed: true}
			if a.Err != nil {
				attempt.Outcome, attempt.Detail = OutcomeFor(*a.Err)
			} else {
				school = firstNonEmpty(a.Name, a.DisplayName)
				attempt.Outcome = OutcomeSuccess
				attempt.Detail = "account list returned"
				attempt.SchoolName = school
			}
			report.Attempts = append(report.Attempts, attempt)
		}
		if th := in.Theme; th != nil {
			attempt := Attempt{Endpoint: EndpointTheme, Needed: true}
			if th.Err != nil {
				attempt.Outcome, attempt.Detail = OutcomeFor(*th.Err)
			} else {
				logo = firstNonEmpty(th.Logo, th.LogoURL, th.BrandLogo)
				attempt.Outcome = OutcomeSuccess
				attempt.Detail = "theme returned"
				attempt.LogoURL = logo
			}
			report.Attempts = append(report.Attempts, attempt)
		}
	}

	if school != "" || logo != "" {
		report.WinnerSource = SourceAPITheme
		report.WinnerReason = "API/theme provided at least one branding field"
		return Info{SchoolName: school, LogoURL: logo, Source: SourceAPITheme}, report
	}

	report.WinnerSource = SourceDomainGuess
	if in.ClientAvailable {
		report.WinnerReason = "API/theme unavailable or empty; used domain fallback"
	} else {
		report.WinnerReason = "no API client/token available; used domain fallback"
	}
	if report.Attempts == nil {
		report.Attempts = []Attempt{}
	}
	return Info{SchoolName: GuessSchoolFromDomain(in.BaseURL), Source: SourceDomainGuess}, report
}

// OutcomeFor maps a failed call onto an outcome tag and detail.
func OutcomeFor(e CallError) (Outcome, string) {
	switch {
	case e.StatusCode == 401:
		return OutcomeUnauthorized, "401 unauthorized"
	case e.StatusCode == 403:
		return OutcomeForbidden, "403 forbidden"
	case e.StatusCode == 404:
		return OutcomeNotFound, "404 not found"
	case e.Kind == "timeout":
		return OutcomeTimeout, "request timed out"
	case e.Kind == "network":
		return OutcomeNetworkError, "network error"
	default:
		return OutcomeError, e.Message
	}
}

var platformTokens = map[string]bool{"www": true, "instructure": true, "com": true, "edu": true}

// GuessSchoolFromDomain derives a display name from the base URL host, e.g.
// https://north-ridge.instructure.com becomes "North Ridge". Returns "" when
// nothing usable remains.
func GuessSchoolFromDomain(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	var parts []string
	for _, p := range strings.Split(host, ".") {
		if p != "" && !platformTokens[p] {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	candidate := strings.NewReplacer("-", " ", "_", " ").Replace(parts[0])
	return titleCase(strings.TrimSpace(candidate))
}

// titleCase upper-cases the first letter of each letter run and lower-cases
// the rest.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
