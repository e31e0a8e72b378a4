package present

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/agora/internal/attach"
	"github.com/mithrel/agora/internal/drafts"
	"github.com/mithrel/agora/pkg/api"
)

func sampleResult() attach.Result {
	return attach.Validate([]api.CandidateFile{
		{Name: "a.png", MIMEType: "image/png", SizeBytes: 2048},
		{Name: "b.zip", MIMEType: "application/zip", SizeBytes: 1},
	}, 0, attach.DefaultPolicy())
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("json")
	assert.True(t, ok)
	assert.Equal(t, ModeJSON, m)
	m, ok = ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, ModePlain, m)
	_, ok = ParseMode("xml")
	assert.False(t, ok)
}

func TestOptionsForNonTerminal(t *testing.T) {
	opts := OptionsFor(&bytes.Buffer{}, ModePretty)
	assert.Equal(t, ModePlain, opts.Mode)
	assert.False(t, opts.Color)
	assert.Equal(t, 80, opts.Width)
}

func TestRenderValidationPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderValidation(&buf, sampleResult(), Options{}))
	out := buf.String()
	assert.Contains(t, out, "accepted")
	assert.Contains(t, out, "a.png")
	assert.Contains(t, out, "2.0 KB")
	assert.Contains(t, out, "rejected")
	assert.Contains(t, out, "type not allowed")
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderValidationJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderValidation(&buf, sampleResult(), Options{Mode: ModeJSON}))
	var got struct {
		Accepted []api.CandidateFile `json:"accepted"`
		Rejected []struct {
			Name   string `json:"name"`
			Reason string `json:"reason"`
		} `json:"rejected"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got.Accepted, 1)
	require.Len(t, got.Rejected, 1)
	assert.Equal(t, "b.zip", got.Rejected[0].Name)
	assert.Equal(t, "type not allowed", got.Rejected[0].Reason)
}

func TestRenderDrafts(t *testing.T) {
	ds := []drafts.Draft{{ID: "d1", Title: "Tab\there", CategoryID: 2, UpdatedAt: time.Unix(0, 0)}}
	var buf bytes.Buffer
	require.NoError(t, RenderDrafts(&buf, ds, Options{Headers: true}))
	assert.Contains(t, buf.String(), "id")
	assert.Contains(t, buf.String(), `Tab\there`)

	buf.Reset()
	require.NoError(t, RenderDrafts(&buf, nil, Options{Mode: ModeJSON}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestRenderDraftPlain(t *testing.T) {
	d := drafts.Draft{ID: "d1", Title: "T", Markdown: "**b**", TagIDs: []int64{1, 2},
		Attachments: []drafts.Attachment{{Name: "a.png", MIMEType: "image/png", SizeBytes: 10, Digest: "0123456789abcdef"}}}
	var buf bytes.Buffer
	require.NoError(t, RenderDraft(&buf, d, Options{}))
	out := buf.String()
	assert.Contains(t, out, "Tags: 1,2")
	assert.Contains(t, out, "a.png")
	assert.Contains(t, out, "0123456789ab")
	assert.Contains(t, out, "---\n**b**\n")
}

func TestRenderLocations(t *testing.T) {
	l := attach.LocationsFor(api.Attachment{ID: 3, FilePath: "p/a.png", FileName: "a.png"}, "https://f.test")
	var buf bytes.Buffer
	require.NoError(t, RenderLocations(&buf, l, Options{}))
	assert.Contains(t, buf.String(), "download\thttps://f.test/storage/p/a.png")
	assert.Contains(t, buf.String(), "display[3]\thttps://f.test/uploads/a.png")
}

func TestRenderQuestionPlainAndPretty(t *testing.T) {
	q := api.Question{ID: 5, Title: "Hello", Markdown: "some **body**", Category: api.Category{Name: "Go"},
		Tags: []api.Tag{{ID: 1, Name: "http"}}}
	var buf bytes.Buffer
	require.NoError(t, RenderQuestion(&buf, q, Options{}))
	assert.Contains(t, buf.String(), "Title: Hello")
	assert.Contains(t, buf.String(), "Tags: http")

	buf.Reset()
	require.NoError(t, RenderQuestion(&buf, q, Options{Mode: ModePretty, Width: 60}))
	assert.Contains(t, buf.String(), "Hello")
	assert.Contains(t, buf.String(), "body")
}

func TestStylesWithoutColorAreIdentity(t *testing.T) {
	st := NewStyles(false)
	assert.Equal(t, "x", st.Accepted("x"))
	assert.Equal(t, "x", st.Rejected("x"))
}
