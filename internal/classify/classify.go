// Package classify holds the pure text classifiers used by the import
// pipeline. Every classifier is deterministic and rule order is part of the
// contract: rules are evaluated first-match-wins in the order listed here.
package classify

import (
	"regexp"
	"strings"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

// knownCustomers is the fixed registry of customer names recognized by exact
// (case-insensitive) substring match, tried in registry order.
var knownCustomers = []string{
	"Biddex", "Faysal", "Tarabezah", "InstaPrints", "Intlaq", "Majalat", "Toobit", "POLIGON", "Acme",
}

// namePatterns are fallback heuristics for subjects that do not mention a
// registered customer. Tried in order; the first alphabetic capture longer
// than two characters wins.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\w+)\s*\|`), // name before pipe
	regexp.MustCompile(`(?i)\|\s*(\w+)`), // name after pipe
	regexp.MustCompile(`(?i)(\w+)\s*API`), // name before API
}

// CustomerName extracts a customer name from a ticket subject. The second
// return value is false when neither the registry nor the heuristics match;
// the caller is expected to synthesize a placeholder from the requester id.
func CustomerName(subject string) (string, bool) {
	lower := strings.ToLower(subject)
	for _, name := range knownCustomers {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name, true
		}
	}

	for _, pattern := range namePatterns {
		for _, match := range pattern.FindAllStringSubmatch(subject, -1) {
			candidate := match[1]
			if len(candidate) > 2 && isAlpha(candidate) {
				return titleCase(candidate), true
			}
		}
	}
	return "", false
}

// keywordRule pairs an ordered keyword set with the label it yields.
type keywordRule struct {
	keywords []string
	label    string
}

// serviceTypeRules are tested in this fixed order; the ordering is a
// deliberate tie-break (a "sms delivery api" subject classifies as SMS).
var serviceTypeRules = []keywordRule{
	{[]string{"sms", "message", "delivery"}, "SMS"},
	{[]string{"voice", "call", "trunk", "occ"}, "OCC"},
	{[]string{"api", "integration"}, "API"},
}

// ServiceType determines the service line for a ticket. A non-empty product
// custom field always wins verbatim over the subject keywords.
func ServiceType(subject string, customFields map[string]string) string {
	if product := customFields["cf_product973573"]; product != "" {
		return product
	}
	lower := strings.ToLower(subject)
	for _, rule := range serviceTypeRules {
		if containsAny(lower, rule.keywords) {
			return rule.label
		}
	}
	return "Other"
}

// issueTypeRules are tested in this fixed order, first match wins.
var issueTypeRules = []keywordRule{
	{[]string{"outage", "down", "connection down"}, "Service Outage"},
	{[]string{"delivery", "failed", "not delivered"}, "Delivery Issue"},
	{[]string{"api", "integration", "authentication"}, "API Integration"},
	{[]string{"otp", "verification"}, "OTP Service"},
	{[]string{"whatsapp", "wab"}, "WhatsApp Business"},
	{[]string{"sender id", "registration"}, "Sender ID"},
	{[]string{"billing", "credit", "payment"}, "Account/Billing"},
	{[]string{"performance", "slow", "cpu"}, "Performance"},
}

// IssueType categorizes a ticket subject, defaulting to "General Support".
func IssueType(subject string) string {
	lower := strings.ToLower(subject)
	for _, rule := range issueTypeRules {
		if containsAny(lower, rule.keywords) {
			return rule.label
		}
	}
	return "General Support"
}

// CustomerType maps the raw helpdesk classification label to the canonical
// segment. Enterprise labels mentioning a local geography are split out into
// local_enterprise.
func CustomerType(raw string) domain.CustomerType {
	switch {
	case strings.Contains(raw, "Enterprise"):
		if strings.Contains(raw, "Egypt") || strings.Contains(raw, "KSA") || strings.Contains(raw, "Pakistan") {
			return domain.CustomerTypeLocalEnterprise
		}
		return domain.CustomerTypeEnterprise
	case strings.Contains(raw, "Wholesale"):
		return domain.CustomerTypeWholesale
	case strings.Contains(raw, "Internal"):
		return domain.CustomerTypeInternal
	default:
		return domain.CustomerTypeUnknown
	}
}

// Geography guesses a customer's geography from the raw classification label.
func Geography(raw string) string {
	switch {
	case strings.Contains(raw, "Egypt"):
		return "Egypt"
	case strings.Contains(raw, "KSA"), strings.Contains(raw, "Saudi"):
		return "KSA"
	case strings.Contains(raw, "Pakistan"):
		return "Pakistan"
	default:
		return "Unknown"
	}
}

// outageIndicators flag subjects that represent a service-impacting event.
var outageIndicators = []string{
	"outage", "down", "connection down", "triggered:", "no data:", "service interruption",
}

// IsOutageIndicator reports whether a subject indicates an outage episode.
func IsOutageIndicator(subject string) bool {
	return containsAny(strings.ToLower(subject), outageIndicators)
}

// IsRecoveryIndicator reports whether a subject marks an outage recovery.
func IsRecoveryIndicator(subject string) bool {
	return strings.Contains(strings.ToLower(subject), "recovered:")
}

const maxStrippedLen = 500

var markupPattern = regexp.MustCompile(`<.*?>`)

// StripMarkup removes tag-like markup, collapses whitespace and caps the
// result at 500 characters. Idempotent and total: malformed markup is left
// as-is rather than failing.
func StripMarkup(text string) string {
	if text == "" {
		return ""
	}
	clean := markupPattern.ReplaceAllString(text, "")
	clean = strings.Join(strings.Fields(clean), " ")
	runes := []rune(clean)
	if len(runes) > maxStrippedLen {
		// the cut can land on a space; trim it or a second pass would
		// collapse it away and shrink the result again
		return strings.TrimSpace(string(runes[:maxStrippedLen]))
	}
	return clean
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return s != ""
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
