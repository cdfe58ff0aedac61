package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

func TestCustomerNameRegistryMatch(t *testing.T) {
	name, ok := CustomerName("Connection Down | Acme")
	require.True(t, ok)
	assert.Equal(t, "Acme", name)

	name, ok = CustomerName("toobit delivery failing")
	require.True(t, ok)
	assert.Equal(t, "Toobit", name)

	// registry order wins over heuristics
	name, ok = CustomerName("Biddex | something")
	require.True(t, ok)
	assert.Equal(t, "Biddex", name)
}

func TestCustomerNameHeuristics(t *testing.T) {
	name, ok := CustomerName("Someco API errors")
	require.True(t, ok)
	assert.Equal(t, "Someco", name)

	// short or non-alphabetic captures are rejected
	_, ok = CustomerName("AB | CD")
	assert.False(t, ok)
	_, ok = CustomerName("12345 issues")
	assert.False(t, ok)

	name, ok = CustomerName("SOMECO | errors")
	require.True(t, ok)
	assert.Equal(t, "Someco", name, "captures are title-cased")
}

func TestCustomerNameNoMatch(t *testing.T) {
	_, ok := CustomerName("weekly sync notes")
	assert.False(t, ok)
}

func TestServiceTypeCustomFieldOverride(t *testing.T) {
	fields := map[string]string{"cf_product973573": "Voice Premium"}
	assert.Equal(t, "Voice Premium", ServiceType("sms delivery failing", fields),
		"non-empty product override wins verbatim regardless of subject")

	assert.Equal(t, "SMS", ServiceType("sms delivery failing", map[string]string{"cf_product973573": ""}))
}

func TestServiceTypeKeywordOrder(t *testing.T) {
	cases := []struct {
		subject string
		want    string
	}{
		{"message not arriving", "SMS"},
		{"voice trunk degraded", "OCC"},
		{"api integration question", "API"},
		{"general question", "Other"},
		// tie-break: SMS set is tested before API
		{"sms api delivery", "SMS"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ServiceType(tc.subject, nil), tc.subject)
	}
}

func TestIssueTypeOrderedRules(t *testing.T) {
	cases := []struct {
		subject string
		want    string
	}{
		{"Connection Down | Acme", "Service Outage"},
		{"messages not delivered", "Delivery Issue"},
		{"authentication error on endpoint", "API Integration"},
		{"OTP verification delay", "OTP Service"},
		{"WAB template rejected", "WhatsApp Business"},
		{"sender id registration", "Sender ID"},
		{"billing discrepancy", "Account/Billing"},
		{"high cpu on gateway", "Performance"},
		{"question about onboarding", "General Support"},
		// outage rule is checked before delivery
		{"delivery outage", "Service Outage"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IssueType(tc.subject), tc.subject)
	}
}

func TestCustomerType(t *testing.T) {
	cases := []struct {
		raw  string
		want domain.CustomerType
	}{
		{"Enterprise - Egypt", domain.CustomerTypeLocalEnterprise},
		{"Enterprise KSA", domain.CustomerTypeLocalEnterprise},
		{"Enterprise Pakistan", domain.CustomerTypeLocalEnterprise},
		{"Enterprise - Global", domain.CustomerTypeEnterprise},
		{"Wholesale Partner", domain.CustomerTypeWholesale},
		{"Internal", domain.CustomerTypeInternal},
		{"Reseller", domain.CustomerTypeUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CustomerType(tc.raw), tc.raw)
	}
}

func TestGeography(t *testing.T) {
	assert.Equal(t, "Egypt", Geography("Enterprise - Egypt"))
	assert.Equal(t, "KSA", Geography("Enterprise Saudi Arabia"))
	assert.Equal(t, "Pakistan", Geography("Enterprise Pakistan"))
	assert.Equal(t, "Unknown", Geography("Wholesale"))
}

func TestOutageIndicators(t *testing.T) {
	assert.True(t, IsOutageIndicator("Connection Down | Acme"))
	assert.True(t, IsOutageIndicator("Triggered: SMS gateway alarm"))
	assert.True(t, IsOutageIndicator("No data: delivery reports"))
	assert.False(t, IsOutageIndicator("billing question"))

	assert.True(t, IsRecoveryIndicator("Recovered: SMS gateway alarm"))
	assert.False(t, IsRecoveryIndicator("Triggered: SMS gateway alarm"))
}

func TestStripMarkup(t *testing.T) {
	assert.Equal(t, "hello world", StripMarkup("<p>hello</p>   <b>world</b>"))
	assert.Equal(t, "", StripMarkup(""))

	// malformed markup never fails; an unclosed tag is left as-is
	assert.Equal(t, "b<c", StripMarkup("<a>b<c"))
}

func TestStripMarkupTruncationBoundary(t *testing.T) {
	// "a " repeated puts a space at rune index 499, right where the cap
	// cuts; the result must not carry it
	in := strings.Repeat("a ", 300)
	once := StripMarkup(in)

	assert.Equal(t, once, strings.TrimSpace(once))
	assert.Equal(t, once, StripMarkup(once))
	assert.LessOrEqual(t, len([]rune(once)), 500)
}

func TestStripMarkupIdempotent(t *testing.T) {
	inputs := []string{
		"<p>hello</p> world",
		"<<b>>nested",
		"a < b > c",
		"plain text   with\tspaces",
		strings.Repeat("<div>long text </div>", 200),
	}
	for _, in := range inputs {
		once := StripMarkup(in)
		assert.Equal(t, once, StripMarkup(once), "not idempotent for %q", in)
		assert.LessOrEqual(t, len([]rune(once)), 500)
	}
}
