package resolve

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/sanitize"
)

// Tier names the matcher that accepted a candidate.
type Tier string

const (
	TierExact        Tier = "exact"
	TierCorroborated Tier = "corroborated"
	TierOracle       Tier = "oracle"
)

// Matcher accepts at most one candidate for a query.
type Matcher interface {
	Tier() Tier
	Match(ctx context.Context, q Query, cands []model.Candidate) (model.Candidate, bool)
}

// Oracle decides whether two title/author pairs describe the same work.
type Oracle interface {
	SameWork(ctx context.Context, titleA string, authorsA []string, titleB string, authorsB []string) (bool, error)
}

// ExactMatcher accepts the first candidate whose normalized title equals
// the query's.
type ExactMatcher struct{}

// Tier implements Matcher.
func (ExactMatcher) Tier() Tier { return TierExact }

// Match implements Matcher.
func (ExactMatcher) Match(_ context.Context, q Query, cands []model.Candidate) (model.Candidate, bool) {
	for _, c := range cands {
		if n := sanitize.NormalizeTitle(c.Title); n != "" && n == q.NormTitle {
			return c, true
		}
	}
	return model.Candidate{}, false
}

// CorroboratedMatcher accepts the first candidate whose normalized title
// contains, or is contained in, the query's and that shares at least one
// author name with it.
type CorroboratedMatcher struct{}

// Tier implements Matcher.
func (CorroboratedMatcher) Tier() Tier { return TierCorroborated }

// Match implements Matcher.
func (CorroboratedMatcher) Match(_ context.Context, q Query, cands []model.Candidate) (model.Candidate, bool) {
	if q.NormTitle == "" || len(q.Authors) == 0 {
		return model.Candidate{}, false
	}
	for _, c := range cands {
		n := sanitize.NormalizeTitle(c.Title)
		if n == "" {
			continue
		}
		if !strings.Contains(n, q.NormTitle) && !strings.Contains(q.NormTitle, n) {
			continue
		}
		if SharesAuthor(q.Authors, c.Authors) {
			return c, true
		}
	}
	return model.Candidate{}, false
}

// SharesAuthor reports whether a and b have a name in common, compared case
// and whitespace insensitively.
func SharesAuthor(a, b []string) bool {
	names := make(map[string]struct{}, len(a))
	for _, n := range a {
		if k := sanitize.Name(n); k != "" {
			names[k] = struct{}{}
		}
	}
	for _, n := range b {
		if _, ok := names[sanitize.Name(n)]; ok {
			return true
		}
	}
	return false
}

// OracleMatcher asks an Oracle about each candidate in order and accepts
// the first affirmative answer. Oracle errors count as a negative answer.
type OracleMatcher struct {
	Oracle Oracle
}

// Tier implements Matcher.
func (OracleMatcher) Tier() Tier { return TierOracle }

// Match implements Matcher.
func (m OracleMatcher) Match(ctx context.Context, q Query, cands []model.Candidate) (model.Candidate, bool) {
	for _, c := range cands {
		same, err := m.Oracle.SameWork(ctx, q.Title, q.Authors, c.Title, c.Authors)
		if err != nil {
			zap.L().Warn("resolve: oracle failed",
				zap.String("title", q.Title),
				zap.String("candidate_doi", c.DOI),
				zap.Error(err),
			)
			continue
		}
		if same {
			return c, true
		}
	}
	return model.Candidate{}, false
}
