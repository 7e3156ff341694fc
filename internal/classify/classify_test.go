package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/colmmemedsurv/sentinelnode/internal/llm"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
)

func TestClassify_Labels(t *testing.T) {
	tests := []struct {
		reply string
		want  model.Relevance
	}{
		{"YES", model.RelevanceYes},
		{" no\n", model.RelevanceNo},
		{"uncertain", model.RelevanceUncertain},
		{"Yes, this is about HNSCC", model.RelevanceUncertain},
		{"", model.RelevanceUncertain},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			m := new(llm.MockCompleter)
			m.On("Complete", mock.Anything, mock.Anything).Return(tt.reply, nil)

			got := New(m).Classify(context.Background(), "Cetuximab in oropharyngeal cancer", "Abstract text")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_ShortTextSkipsModel(t *testing.T) {
	m := new(llm.MockCompleter)

	got := New(m).Classify(context.Background(), "Short", "  ")
	assert.Equal(t, model.RelevanceUncertain, got)
	m.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestClassify_ErrorIsUncertain(t *testing.T) {
	m := new(llm.MockCompleter)
	m.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

	got := New(m).Classify(context.Background(), "Radiotherapy de-escalation in HPV+ OPSCC", "")
	assert.Equal(t, model.RelevanceUncertain, got)
}

func TestClassify_PromptCarriesGuidance(t *testing.T) {
	m := new(llm.MockCompleter)
	m.On("Complete", mock.Anything, mock.MatchedBy(func(r llm.Request) bool {
		return r.System == systemPrompt &&
			strings.Contains(r.Prompt, "Thyroid only.") &&
			strings.Contains(r.Prompt, "TITLE:\nA long enough title here") &&
			strings.Contains(r.Prompt, "ABSTRACT:\nabs")
	})).Return("NO", nil)

	c := New(m, WithGuidance("Thyroid only."), WithMinChars(5))
	assert.Equal(t, model.RelevanceNo, c.Classify(context.Background(), "A long enough title here", "abs"))
	m.AssertExpectations(t)
}

func TestParseLabel(t *testing.T) {
	assert.Equal(t, model.RelevanceYes, ParseLabel("yes"))
	assert.Equal(t, model.RelevanceNo, ParseLabel("NO"))
	assert.Equal(t, model.RelevanceUncertain, ParseLabel("maybe"))
}
