// Package resolve recovers a missing DOI by searching a bibliographic index
// by title and accepting a candidate through a chain of matchers of
// decreasing strictness.
package resolve

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/colmmemedsurv/sentinelnode/internal/model"
	"github.com/colmmemedsurv/sentinelnode/internal/sanitize"
)

// DefaultCandidateLimit is the number of search hits considered.
const DefaultCandidateLimit = 5

// Searcher returns title-search candidates in relevance order. It never
// fails; no data is an empty result.
type Searcher interface {
	Search(ctx context.Context, title string, limit int) []model.Candidate
}

// Query is the record being resolved.
type Query struct {
	Title     string
	NormTitle string
	Authors   []string
}

// Match is an accepted candidate and the tier that accepted it.
type Match struct {
	DOI       string          `json:"doi"`
	Tier      Tier            `json:"tier"`
	Candidate model.Candidate `json:"candidate"`
}

// Resolver runs the recovery search and the matcher chain.
type Resolver struct {
	search   Searcher
	matchers []Matcher
	limit    int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLimit sets how many candidates are requested.
func WithLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithMatchers replaces the matcher chain.
func WithMatchers(m ...Matcher) Option {
	return func(r *Resolver) {
		r.matchers = m
	}
}

// New creates a Resolver using the exact and corroborated matchers, followed
// by the oracle matcher when oracle is non-nil.
func New(search Searcher, oracle Oracle, opts ...Option) *Resolver {
	r := &Resolver{
		search:   search,
		matchers: []Matcher{ExactMatcher{}, CorroboratedMatcher{}},
		limit:    DefaultCandidateLimit,
	}
	if oracle != nil {
		r.matchers = append(r.matchers, OracleMatcher{Oracle: oracle})
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve searches by title and returns the first candidate accepted by the
// matcher chain. Matchers run in order and a later matcher is only reached
// when every earlier one found nothing. Candidates without a DOI are never
// accepted. A title that normalizes to nothing is not searched.
func (r *Resolver) Resolve(ctx context.Context, title string, authors []string) (Match, bool) {
	q := Query{
		Title:     sanitize.Line(title),
		NormTitle: sanitize.NormalizeTitle(title),
		Authors:   authors,
	}
	if q.NormTitle == "" {
		return Match{}, false
	}

	var cands []model.Candidate
	for _, c := range r.search.Search(ctx, q.Title, r.limit) {
		if strings.TrimSpace(c.DOI) != "" {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		zap.L().Debug("resolve: no candidates", zap.String("title", q.Title))
		return Match{}, false
	}

	for _, m := range r.matchers {
		if c, ok := m.Match(ctx, q, cands); ok {
			zap.L().Info("resolve: recovered doi",
				zap.String("title", q.Title),
				zap.String("doi", c.DOI),
				zap.String("tier", string(m.Tier())),
			)
			return Match{DOI: strings.TrimSpace(c.DOI), Tier: m.Tier(), Candidate: c}, true
		}
	}

	zap.L().Debug("resolve: no match", zap.String("title", q.Title), zap.Int("candidates", len(cands)))
	return Match{}, false
}
