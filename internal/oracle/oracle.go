// Package oracle asks a language model whether two bibliographic records
// describe the same work.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/colmmemedsurv/sentinelnode/internal/llm"
	"github.com/colmmemedsurv/sentinelnode/internal/resilience"
)

const systemPrompt = "You compare bibliographic records. Reply ONLY YES if both records describe the same scholarly work, otherwise reply NO."

// Oracle answers same-work questions.
type Oracle struct {
	llm   llm.Completer
	pacer *resilience.Pacer
}

// New creates an Oracle. pacer may be nil.
func New(completer llm.Completer, pacer *resilience.Pacer) *Oracle {
	return &Oracle{llm: completer, pacer: pacer}
}

// SameWork reports whether record A and record B are the same work. Only a
// reply whose first word is YES counts as agreement.
func (o *Oracle) SameWork(ctx context.Context, titleA string, authorsA []string, titleB string, authorsB []string) (bool, error) {
	prompt := fmt.Sprintf("RECORD A\nTitle: %s\nAuthors: %s\n\nRECORD B\nTitle: %s\nAuthors: %s\n",
		titleA, joinAuthors(authorsA), titleB, joinAuthors(authorsB))

	out, err := resilience.Call(ctx, o.pacer, func(ctx context.Context) (string, error) {
		return o.llm.Complete(ctx, llm.Request{System: systemPrompt, Prompt: prompt, MaxTokens: 4})
	})
	if err != nil {
		return false, eris.Wrap(err, "oracle: same work")
	}
	return IsYes(out), nil
}

// IsYes reports whether a reply's first word is YES, ignoring case and
// trailing punctuation.
func IsYes(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	word := strings.TrimFunc(fields[0], func(r rune) bool { return !unicode.IsLetter(r) })
	return strings.EqualFold(word, "yes")
}

func joinAuthors(a []string) string {
	if len(a) == 0 {
		return "unknown"
	}
	return strings.Join(a, "; ")
}
