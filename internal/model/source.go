package model

// RegistryRecord is the metadata a DOI registry returns for one work.
type RegistryRecord struct {
	DOI            string   `json:"doi"`
	ContainerTitle string   `json:"container_title,omitempty"`
	Authors        []string `json:"authors,omitempty"`
	DateParts      []int    `json:"date_parts,omitempty"`
	URL            string   `json:"url,omitempty"`
	Abstract       string   `json:"abstract,omitempty"`
}

// Candidate is one title-search hit.
type Candidate struct {
	Title   string   `json:"title"`
	DOI     string   `json:"doi"`
	Authors []string `json:"authors,omitempty"`
}

// AbstractSection is one labeled part of a structured abstract.
type AbstractSection struct {
	Label string `json:"label,omitempty"`
	Text  string `json:"text"`
}

// FullRecord is the citation record held by a biomedical index.
type FullRecord struct {
	PMID      string            `json:"pmid"`
	Sections  []AbstractSection `json:"sections,omitempty"`
	Authors   []string          `json:"authors,omitempty"`
	Journal   string            `json:"journal,omitempty"`
	DateParts []int             `json:"date_parts,omitempty"`
}

// Partial is one source's contribution to a merged record. Empty fields
// contribute nothing.
type Partial struct {
	Source    string
	Journal   string
	Authors   []string
	Link      string
	Abstract  string
	Published string
	DateParts []int
}
