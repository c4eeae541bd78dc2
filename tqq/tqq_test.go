package tqq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tauqlang/tauq"
)

func TestSetAndSubstitution(t *testing.T) {
	out, err := ExecQuery("!set NAME Alice\ngreeting $NAME\n", false)
	require.NoError(t, err)
	assert.Equal(t, "greeting Alice\n", out)
}

func TestBracedSubstitution(t *testing.T) {
	out, err := ExecQuery("!set X 1\nkey ${X}9\n", false)
	require.NoError(t, err)
	assert.Equal(t, "key 19\n", out)
}

func TestUnknownVariableSubstitutesEmpty(t *testing.T) {
	out, err := ExecQuery("value $GHOST\n", false)
	require.NoError(t, err)
	assert.Equal(t, "value \n", out)
}

// TestScenarioS7SafeModeBlocksRead asserts spec scenario S7.
func TestScenarioS7SafeModeBlocksRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secret.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := ExecQuery(`!read "`+path+`"`+"\n", true)
	require.Error(t, err)
	var terr *tauq.Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, tauq.ErrDirective, terr.Kind)

	out, err := ExecQuery(`!read "`+path+`"`+"\n", false)
	require.NoError(t, err)
	assert.Contains(t, out, `"hello"`)
}

// TestSafeModeContainment asserts spec.md §8 property 8 across every
// filesystem/subprocess directive.
func TestSafeModeContainment(t *testing.T) {
	directives := []string{
		`!import "whatever.tqq"`,
		`!json "whatever.json"`,
		`!read "whatever.txt"`,
		`!emit echo hi`,
		`!pipe cat`,
		`!run sh {`,
		`!env HOME`,
	}
	for _, d := range directives {
		_, err := ExecQuery(d+"\n", true)
		require.Error(t, err, "directive %q should be blocked in safe mode", d)
		var terr *tauq.Error
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, tauq.ErrDirective, terr.Kind, "directive %q", d)
	}
}

func TestImportCycleErrors(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.tqq")
	b := filepath.Join(dir, "b.tqq")
	require.NoError(t, os.WriteFile(a, []byte(`!import "b.tqq"`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(`!import "a.tqq"`+"\n"), 0o644))

	_, err := ExecQuery(`!import "`+a+`"`+"\n", false)
	require.Error(t, err)
}

func TestImportDepthExceeded(t *testing.T) {
	dir := t.TempDir()
	// Build a chain of MaxImportDepth+5 files, each importing the next.
	for i := 0; i < MaxImportDepth+5; i++ {
		name := filepath.Join(dir, fileName(i))
		next := filepath.Join(dir, fileName(i+1))
		require.NoError(t, os.WriteFile(name, []byte(`!import "`+next+`"`+"\n"), 0o644))
	}
	last := filepath.Join(dir, fileName(MaxImportDepth+5))
	require.NoError(t, os.WriteFile(last, []byte("value 1\n"), 0o644))

	_, err := ExecQuery(`!import "`+filepath.Join(dir, fileName(0))+`"`+"\n", false)
	require.Error(t, err)
}

func fileName(i int) string {
	return "f" + itoa(i) + ".tqq"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf []byte
	for i > 0 {
		buf = append([]byte{byte('0' + i%10)}, buf...)
		i /= 10
	}
	return string(buf)
}

func TestImportInjectsFileContents(t *testing.T) {
	dir := t.TempDir()
	inc := filepath.Join(dir, "inc.tqq")
	require.NoError(t, os.WriteFile(inc, []byte("b 2\n"), 0o644))

	out, err := ExecQuery("a 1\n!import \""+inc+"\"\nc 3\n", false)
	require.NoError(t, err)
	assert.Equal(t, "a 1\nb 2\nc 3\n", out)

	v, err := tauq.ParseToValue(out)
	require.NoError(t, err)
	a, _ := v.Get("a")
	i, _ := a.Int()
	assert.Equal(t, int64(1), i)
}

func TestExecQueryThenParse(t *testing.T) {
	out, err := ExecQuery("!set ID 7\n!def U id\n$ID\n", false)
	require.NoError(t, err)
	v, err := tauq.ParseToValue(out)
	require.NoError(t, err)
	require.Equal(t, tauq.KindArray, v.Kind())
	row := v.Elems()[0]
	id, _ := row.Get("id")
	i, _ := id.Int()
	assert.Equal(t, int64(7), i)
}

func TestEmitDirectiveCapturesStdout(t *testing.T) {
	out, err := ExecQuery(`!emit echo "hello there"`+"\n", false)
	require.NoError(t, err)
	assert.Contains(t, out, "hello there")
}

func TestEmitDirectiveNonZeroExitErrors(t *testing.T) {
	_, err := ExecQuery("!emit false\n", false)
	require.Error(t, err)
}

func TestPipeDirectiveFeedsRemainderAsStdin(t *testing.T) {
	out, err := ExecQuery("!pipe cat\nfield value\nmore stuff\n", false)
	require.NoError(t, err)
	assert.Contains(t, out, "field value")
	assert.Contains(t, out, "more stuff")
}

func TestRunDirectiveWritesTempFileAndCleansUp(t *testing.T) {
	out, err := ExecQuery("!run cat {\nrow 1\nrow 2\n}\n", false)
	require.NoError(t, err)
	assert.Contains(t, out, "row 1")
	assert.Contains(t, out, "row 2")

	entries, err := os.ReadDir(os.TempDir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "tauq-run-", "temp file must be removed after !run completes")
	}
}

func TestSplitArgsHonorsQuotes(t *testing.T) {
	argv, err := splitArgs(`echo "hello world" plain`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "hello world", "plain"}, argv)
}

func TestSplitArgsUnterminatedQuoteErrors(t *testing.T) {
	_, err := splitArgs(`echo "unterminated`)
	require.Error(t, err)
}
