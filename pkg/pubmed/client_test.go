package pubmed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const efetchXML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2024//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_240101.dtd">
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation Status="MEDLINE" Owner="NLM">
      <PMID Version="1">38000001</PMID>
      <Article PubModel="Print-Electronic">
        <Journal>
          <JournalIssue CitedMedium="Internet">
            <PubDate><Year>2024</Year><Month>Mar</Month><Day>05</Day></PubDate>
          </JournalIssue>
          <Title>Oral oncology</Title>
        </Journal>
        <Abstract>
          <AbstractText Label="BACKGROUND">EGFR is <i>overexpressed</i>.</AbstractText>
          <AbstractText Label="RESULTS">Survival improved.</AbstractText>
        </Abstract>
        <AuthorList CompleteYN="Y">
          <Author><LastName>Doe</LastName><ForeName>Jane</ForeName><Initials>J</Initials></Author>
          <Author><LastName>Roe</LastName><Initials>R</Initials></Author>
          <Author><CollectiveName>HNC Consortium</CollectiveName></Author>
        </AuthorList>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

func TestSearchDOI(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/esearch.fcgi", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "pubmed", q.Get("db"))
		assert.Equal(t, "10.1016/j.oraloncology.2024.1[doi]", q.Get("term"))
		assert.Equal(t, "k", q.Get("api_key"))
		assert.Equal(t, "sentinelnode", q.Get("tool"))
		w.Write([]byte(`{"header":{"type":"esearch"},"esearchresult":{"count":"1","idlist":["38000001"]}}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithAPIKey("k"), WithTool("sentinelnode", "dev@example.org"))
	ids, err := c.SearchDOI(context.Background(), "10.1016/j.oraloncology.2024.1")
	require.NoError(t, err)
	assert.Equal(t, []string{"38000001"}, ids)
}

func TestSearchDOI_Empty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"esearchresult":{"count":"0","idlist":[]}}`))
	}))
	defer srv.Close()

	ids, err := NewClient(WithBaseURL(srv.URL)).SearchDOI(context.Background(), "10.1/none")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/efetch.fcgi", r.URL.Path)
		assert.Equal(t, "38000001", r.URL.Query().Get("id"))
		assert.Equal(t, "xml", r.URL.Query().Get("retmode"))
		w.Write([]byte(efetchXML))
	}))
	defer srv.Close()

	a, err := NewClient(WithBaseURL(srv.URL)).Fetch(context.Background(), "38000001")
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.Equal(t, "38000001", a.PMID)
	assert.Equal(t, "Oral oncology", a.Journal)
	require.Len(t, a.Abstract, 2)
	assert.Equal(t, "BACKGROUND", a.Abstract[0].Label)
	assert.Equal(t, "EGFR is <i>overexpressed</i>.", a.Abstract[0].Text)
	assert.Equal(t, []string{"Jane Doe", "R Roe", "HNC Consortium"}, a.AuthorNames())
	assert.Equal(t, []int{2024, 3, 5}, a.PubDate.Ints())
}

func TestFetch_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"API rate limit exceeded"}`))
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).Fetch(context.Background(), "1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestParseArticle_NoArticles(t *testing.T) {
	t.Parallel()

	a, err := ParseArticle(strings.NewReader(`<PubmedArticleSet></PubmedArticleSet>`))
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestParseArticle_Latin1(t *testing.T) {
	t.Parallel()

	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><PubmedArticleSet><PubmedArticle><MedlineCitation><PMID>7</PMID>" +
		"<Article><Journal><Title>Acta Oto-Laryngol\xf3gica</Title></Journal></Article></MedlineCitation></PubmedArticle></PubmedArticleSet>"
	a, err := ParseArticle(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "Acta Oto-Laryngológica", a.Journal)
}

func TestPubDate_Ints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   PubDate
		want []int
	}{
		{"numeric", PubDate{Year: "2023", Month: "11", Day: "2"}, []int{2023, 11, 2}},
		{"named month only", PubDate{Year: "2023", Month: "Sep"}, []int{2023, 9}},
		{"year only", PubDate{Year: "2020"}, []int{2020}},
		{"medline", PubDate{MedlineDate: "2019 Nov-Dec"}, []int{2019}},
		{"season", PubDate{Year: "2021", Month: "Spring"}, []int{2021}},
		{"empty", PubDate{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Ints())
		})
	}
}
