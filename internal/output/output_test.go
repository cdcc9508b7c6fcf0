package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Identifier string `json:"identifier"`
	Count      int    `json:"count"`
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"":         FormatTable,
		"table":    FormatTable,
		"JSON":     FormatJSON,
		"yml":      FormatYAML,
		"yaml":     FormatYAML,
		"md":       FormatMarkdown,
		"markdown": FormatMarkdown,
	}
	for input, expected := range tests {
		format, err := ParseFormat(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, format, input)
	}

	_, err := ParseFormat("csv")
	require.Error(t, err)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "json", FormatJSON.Extension())
	assert.Equal(t, "yaml", FormatYAML.Extension())
	assert.Equal(t, "md", FormatMarkdown.Extension())
	assert.Equal(t, "txt", FormatTable.Extension())
}

func TestWriteJSONAndYAMLUseJSONTags(t *testing.T) {
	payload := []sample{{Identifier: "client-a", Count: 3}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, payload, nil))
	assert.Contains(t, buf.String(), `"identifier": "client-a"`)

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, payload, nil))
	assert.Contains(t, buf.String(), "- count: 3")
	assert.Contains(t, buf.String(), "identifier: client-a")
}

func TestWriteTable(t *testing.T) {
	tbl := NewTable("Rate Limits", "Identifier", "Count").
		Append("client:mentionlytics", 12).
		Append("http:10.0.0.1", 3)
	tbl.Footer = []any{"", 15}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, nil, tbl))
	rendered := buf.String()
	assert.Contains(t, rendered, "Rate Limits")
	assert.Contains(t, rendered, "client:mentionlytics")
	assert.Contains(t, rendered, "╭")

	buf.Reset()
	require.NoError(t, Write(&buf, FormatMarkdown, nil, tbl))
	assert.True(t, strings.HasPrefix(buf.String(), "## Rate Limits"))
	assert.Contains(t, buf.String(), "| http:10.0.0.1 |")
}

func TestEmptyTable(t *testing.T) {
	tbl := NewTable("Crisis Events", "ID", "Status")
	tbl.Empty = "(none)"

	assert.Contains(t, tbl.Render(), "(none)")
}

func TestWriteWithoutTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatTable, sample{Identifier: "x"}, nil))
	assert.Contains(t, buf.String(), `"identifier": "x"`)
}

func TestCount(t *testing.T) {
	assert.Equal(t, "1 entry", Count(1, "entry", "entries"))
	assert.Equal(t, "0 entries", Count(0, "entry", "entries"))
}
