package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectTagsCommunicationsRequiresBothVerbAndIndicator(t *testing.T) {
	rules := DefaultTagRules()
	tags := DetectTags("Call the client about the invoice tomorrow.", rules)
	assert.Contains(t, tags, "📞 communications")
}

func TestDetectTagsCommunicationsRequiresIndicatorToo(t *testing.T) {
	rules := DefaultTagRules()
	tags := DetectTags("Call to check the weather forecast.", rules)
	assert.NotContains(t, tags, "📞 communications")
}

func TestDetectTagsPartnerDecision(t *testing.T) {
	rules := DefaultTagRules()
	tags := DetectTags("We need to talk about the home remodel budget.", rules)
	assert.Contains(t, tags, "🤝 needs-input-from-partner")
}

func TestDetectTagsNoMatch(t *testing.T) {
	rules := DefaultTagRules()
	tags := DetectTags("Water the plants on the balcony.", rules)
	assert.Empty(t, tags)
}
