package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"voicepipe/internal/model"
)

func TestGenerateTitleFallsBackToTruncationWithoutLLM(t *testing.T) {
	title := GenerateTitle(context.Background(), nil, model.CategoryTask, "Call the electrician about the flickering kitchen lights before the weekend")
	assert.Equal(t, "Call the electrician about the flickering kitchen lights", title)
}

func TestCleanTitleStripsQuotes(t *testing.T) {
	assert.Equal(t, "Buy new filters", cleanTitle(`"Buy new filters"`))
}

func TestFallbackTitleShortTextUnchanged(t *testing.T) {
	assert.Equal(t, "Buy milk", fallbackTitle("Buy milk"))
}
