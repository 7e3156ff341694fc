package model

import (
	"encoding/json"
	"strings"
)

// Sentinel display values written when a field could not be resolved.
const (
	DOINotFound          = "DOI not found"
	AbstractNotAvailable = "Abstract not available"
)

// Relevance is the classifier verdict for a record.
type Relevance string

const (
	RelevanceYes       Relevance = "YES"
	RelevanceNo        Relevance = "NO"
	RelevanceUncertain Relevance = "UNCERTAIN"
)

// Provenance source names.
const (
	SourceFeed       = "feed"
	SourceRegistry   = "crossref"
	SourceFullRecord = "pubmed"
)

// Record is one literature entry as it moves through the pipeline.
type Record struct {
	ID            string            `json:"id,omitempty"`
	SourceFeed    string            `json:"source_feed,omitempty"`
	Title         string            `json:"title"`
	Link          string            `json:"link,omitempty"`
	Journal       string            `json:"journal,omitempty"`
	Authors       []string          `json:"authors,omitempty"`
	DOI           string            `json:"doi,omitempty"`
	DOIDisplay    string            `json:"doi_display"`
	Abstract      string            `json:"abstract,omitempty"`
	Published     string            `json:"published,omitempty"`
	AllowRecovery bool              `json:"allow_doi_lookup"`
	DOICandidates []string          `json:"doi_candidates,omitempty"`
	Relevance     Relevance         `json:"relevance,omitempty"`
	Provenance    map[string]string `json:"provenance,omitempty"`
}

// UnmarshalJSON accepts the "identifier" and "origin_allows_recovery"
// aliases used by upstream exporters.
func (r *Record) UnmarshalJSON(b []byte) error {
	type plain Record
	aux := struct {
		*plain
		Identifier           string `json:"identifier"`
		OriginAllowsRecovery *bool  `json:"origin_allows_recovery"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if r.DOI == "" {
		r.DOI = aux.Identifier
	}
	if aux.OriginAllowsRecovery != nil {
		r.AllowRecovery = *aux.OriginAllowsRecovery
	}
	return nil
}

// HasDOI reports whether the record carries an identifier.
func (r *Record) HasDOI() bool {
	return r.DOI != ""
}

// SyncDOIDisplay sets DOIDisplay from DOI.
func (r *Record) SyncDOIDisplay() {
	if r.DOI == "" {
		r.DOIDisplay = DOINotFound
		return
	}
	r.DOIDisplay = r.DOI
}

// ClearSentinels turns sentinel display values back into empty fields so a
// previously reconciled record is treated the same as a fresh one.
func (r *Record) ClearSentinels() {
	if strings.TrimSpace(r.DOI) == DOINotFound {
		r.DOI = ""
	}
	if IsEmptyAbstract(r.Abstract) {
		r.Abstract = ""
	}
}

// SetProvenance records which source filled a field.
func (r *Record) SetProvenance(field, source string) {
	if r.Provenance == nil {
		r.Provenance = make(map[string]string)
	}
	r.Provenance[field] = source
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Authors != nil {
		out.Authors = append([]string(nil), r.Authors...)
	}
	if r.DOICandidates != nil {
		out.DOICandidates = append([]string(nil), r.DOICandidates...)
	}
	if r.Provenance != nil {
		out.Provenance = make(map[string]string, len(r.Provenance))
		for k, v := range r.Provenance {
			out.Provenance[k] = v
		}
	}
	return out
}

// IsEmptyAbstract reports whether s holds no usable abstract text.
func IsEmptyAbstract(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == AbstractNotAvailable
}
