package tauq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerBarewordBoundary(t *testing.T) {
	toks, err := NewLexer("smartphone 5g flagship", 1).Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 4) // 3 idents/numbers + EOF
	assert.Equal(t, TokIdent, toks[0].Kind)
	assert.Equal(t, TokIdent, toks[1].Kind, "5g must not split into Number + Ident")
	assert.Equal(t, "5g", toks[1].Text)
	assert.Equal(t, TokIdent, toks[2].Kind)
}

func TestLexerNumberClassification(t *testing.T) {
	cases := []struct {
		text string
		kind TokenKind
	}{
		{"0", TokNumber},
		{"-12", TokNumber},
		{"3.14", TokNumber},
		{"-3.14e10", TokNumber},
		{"1e5", TokNumber},
		{"5g", TokIdent},
		{"-", TokIdent},
	}
	for _, c := range cases {
		toks, err := NewLexer(c.text, 1).Tokenize()
		require.NoError(t, err)
		require.NotEmpty(t, toks)
		assert.Equal(t, c.kind, toks[0].Kind, "classifying %q", c.text)
	}
}

func TestLexerQuotedStringEscapes(t *testing.T) {
	toks, err := NewLexer(`"line\nbreak \"quote\""`, 1).Tokenize()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(toks), 1)
	assert.Equal(t, TokString, toks[0].Kind)
	assert.Equal(t, "line\nbreak \"quote\"", toks[0].Text)
}

func TestLexerUnterminatedStringIsLexicalError(t *testing.T) {
	_, err := NewLexer(`"unterminated`, 1).Tokenize()
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ErrLexical, terr.Kind)
}

func TestLexerComment(t *testing.T) {
	toks, err := NewLexer("value # trailing comment", 1).Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 2) // ident + EOF
	assert.Equal(t, TokIdent, toks[0].Kind)
}

func TestLexerSchemaSep(t *testing.T) {
	toks, err := NewLexer("---", 1).Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, TokSchemaSep, toks[0].Kind)
}

func TestLexerDirective(t *testing.T) {
	toks, err := NewLexer("!def User id name", 1).Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, TokDirective, toks[0].Kind)
	assert.Equal(t, "def", toks[0].Text)
	assert.Equal(t, "User id name", toks[0].DirArgs)
}
