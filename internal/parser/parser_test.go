package parser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanModelText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `  {"a":1} `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"bom", "\uFEFF{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanModelText(tt.in))
		})
	}
}

func TestExtractJSONSkipsBracesInStrings(t *testing.T) {
	text := `Here you go: {"reasoning": "uses {braces} and ] brackets", "n": 1} trailing`
	assert.Equal(t, `{"reasoning": "uses {braces} and ] brackets", "n": 1}`, ExtractJSON(text))

	assert.Equal(t, `[{"id":"1"}]`, ExtractJSONArray(`note [{"id":"1"}] end`))
	assert.Empty(t, ExtractJSON("no json here"))
	assert.Empty(t, ExtractJSON(`{"unterminated": 1`))
}

func TestDecodeModelJSON(t *testing.T) {
	var out struct {
		Summary string   `json:"summary"`
		Skills  []string `json:"skills"`
	}
	err := DecodeModelJSON("```json\n{\"summary\":\"Go dev\",\"skills\":[\"Go\",\"SQL\"]}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "Go dev", out.Summary)
	assert.Equal(t, []string{"Go", "SQL"}, out.Skills)

	err = DecodeModelJSON("sorry, I cannot help", &out)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecodeModelJSONPrefersObjectOverProseBrackets(t *testing.T) {
	var out struct {
		Summary  string `json:"summary"`
		ATSScore int    `json:"atsScore"`
	}
	err := DecodeModelJSON(`Based on the resume (see [1]): {"summary": "Go dev", "atsScore": 80}`, &out)
	require.NoError(t, err)
	assert.Equal(t, "Go dev", out.Summary)
	assert.Equal(t, 80, out.ATSScore)

	assert.Equal(t, `{"a":[1]}`, ExtractJSONObject(`refs [2] then {"a":[1]}`))
	assert.Empty(t, ExtractJSONObject(`[1,2]`))

	var arr []int
	require.NoError(t, DecodeModelJSON(`values: [1,2]`, &arr))
	assert.Equal(t, []int{1, 2}, arr)
}

func TestDecodeModelJSONRepairsQuotes(t *testing.T) {
	var out struct {
		Reasoning string `json:"reasoning"`
	}
	err := DecodeModelJSON(`{"reasoning": "she said "great fit" twice"}`, &out)
	require.NoError(t, err)
	assert.Equal(t, `she said "great fit" twice`, out.Reasoning)
}

func TestDecodeModelJSONArray(t *testing.T) {
	var out []map[string]any
	require.NoError(t, DecodeModelJSONArray(`Results: [{"title":"Go Engineer"}]`, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Go Engineer", out[0]["title"])

	assert.ErrorIs(t, DecodeModelJSONArray(`{"title":"x"}`, &out), ErrNoJSON)
}

func TestSanitizeJSONKeepsValidInput(t *testing.T) {
	valid := `{"a": "x\"y", "b": ["c", "d"]}`
	assert.Equal(t, valid, SanitizeJSON(valid))
}

func TestNewPDFTextExtractor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	extractor, err := NewPDFTextExtractor(ctx, WithPDFTimeout(2*time.Second))
	require.NoError(t, err, "创建PDF提取器不应返回错误")
	require.NotNil(t, extractor.parser)
	assert.Equal(t, 2*time.Second, extractor.timeout)
}

func TestExtractTextRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	extractor, err := NewPDFTextExtractor(ctx)
	require.NoError(t, err)

	_, err = extractor.ExtractText(ctx, nil, "empty.pdf")
	assert.Error(t, err, "空内容应返回错误")

	_, err = extractor.ExtractText(ctx, []byte("definitely not a pdf"), "bogus.pdf")
	assert.Error(t, err, "非 PDF 内容应返回错误")
}
