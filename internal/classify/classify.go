// Package classify labels literature entries as relevant or not to a
// clinical topic using a language model.
package classify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/colmmemedsurv/sentinelnode/internal/llm"
	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/resilience"
)

// DefaultGuidance describes the head and neck cancer scope.
const DefaultGuidance = `Head & neck cancer includes cancers of the oral cavity, oropharynx, hypopharynx, larynx,
nasopharynx, salivary glands, sinonasal tract, thyroid cancer,
head & neck squamous cell carcinoma (HNSCC), HPV-associated oropharyngeal cancer,
and related treatments specific to these.`

// DefaultMinChars is the shortest title+abstract text sent to the model.
const DefaultMinChars = 20

const systemPrompt = "You are a medical RSS relevance classifier.\nReply ONLY YES, NO, or UNCERTAIN."

// Classifier labels records with a model.Relevance.
type Classifier struct {
	llm      llm.Completer
	guidance string
	minChars int
	pacer    *resilience.Pacer
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithGuidance replaces the topic description.
func WithGuidance(g string) Option {
	return func(c *Classifier) {
		if strings.TrimSpace(g) != "" {
			c.guidance = strings.TrimSpace(g)
		}
	}
}

// WithMinChars sets the minimum text length worth classifying.
func WithMinChars(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.minChars = n
		}
	}
}

// WithPacer spaces out model calls.
func WithPacer(p *resilience.Pacer) Option {
	return func(c *Classifier) {
		c.pacer = p
	}
}

// New creates a Classifier.
func New(completer llm.Completer, opts ...Option) *Classifier {
	c := &Classifier{
		llm:      completer,
		guidance: DefaultGuidance,
		minChars: DefaultMinChars,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Classify returns YES, NO or UNCERTAIN for a title and abstract. Text too
// short to judge, model failures and replies outside the label set are all
// UNCERTAIN.
func (c *Classifier) Classify(ctx context.Context, title, abstract string) model.Relevance {
	if len([]rune(strings.TrimSpace(title+abstract))) < c.minChars {
		return model.RelevanceUncertain
	}

	prompt := fmt.Sprintf("%s\n\nTITLE:\n%s\n\nABSTRACT:\n%s\n", c.guidance, title, abstract)
	out, err := resilience.Call(ctx, c.pacer, func(ctx context.Context) (string, error) {
		return c.llm.Complete(ctx, llm.Request{System: systemPrompt, Prompt: prompt})
	})
	if err != nil {
		zap.L().Warn("classify: model call failed", zap.String("title", title), zap.Error(err))
		return model.RelevanceUncertain
	}
	return ParseLabel(out)
}

// ParseLabel maps a model reply onto a label.
func ParseLabel(s string) model.Relevance {
	switch model.Relevance(strings.ToUpper(strings.TrimSpace(s))) {
	case model.RelevanceYes:
		return model.RelevanceYes
	case model.RelevanceNo:
		return model.RelevanceNo
	default:
		return model.RelevanceUncertain
	}
}
