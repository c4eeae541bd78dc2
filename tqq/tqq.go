// Package tqq implements the Tauq Query preprocessor: a line-oriented
// directive interpreter that rewrites a text stream into TQN before it
// reaches the tauq package's parser.
package tqq

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tauqlang/tauq"
)

// MaxImportDepth bounds the !import work-stack depth (spec.md §5, §9
// "Recursive preprocessor").
const MaxImportDepth = 100

// frame is one entry of the preprocessor's explicit import work-stack.
// !import is implemented iteratively over this stack, not via Go call
// recursion, so the import-termination property (spec.md §8 property 9)
// holds regardless of call-stack limits.
type frame struct {
	lines []string
	idx   int
	dir   string
	label string // path used for cycle detection; "" for the root frame
}

type engine struct {
	vars     map[string]string
	visited  map[string]bool
	safeMode bool
	out      strings.Builder
	stack    []*frame
}

// ExecQuery runs the TQQ preprocessor over text and returns the resulting
// TQN text (the exec_query operation, spec.md §6). Callers feed the result
// to tauq.ParseToValue to obtain a parsed value.
func ExecQuery(text string, safeMode bool) (string, error) {
	e := &engine{
		vars:     make(map[string]string),
		visited:  make(map[string]bool),
		safeMode: safeMode,
	}
	root := &frame{lines: splitLines(text), dir: "."}
	e.stack = append(e.stack, root)
	if err := e.run(); err != nil {
		return "", err
	}
	return e.out.String(), nil
}

// splitLines splits text into lines, dropping the single trailing empty
// segment a final newline produces — "a\nb\n" is two lines, not three.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func (e *engine) top() *frame { return e.stack[len(e.stack)-1] }

// run drains the work stack. Each !import pushes a frame; frames pop when
// exhausted. Depth is simply len(e.stack), checked on every push.
func (e *engine) run() error {
	for len(e.stack) > 0 {
		f := e.top()
		if f.idx >= len(f.lines) {
			e.stack = e.stack[:len(e.stack)-1]
			delete(e.visited, f.label)
			continue
		}
		line := f.lines[f.idx]
		f.idx++

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			e.out.WriteString("\n")
			continue
		}

		if strings.HasPrefix(trimmed, "!") {
			if err := e.dispatch(trimmed, f); err != nil {
				return err
			}
			continue
		}

		e.out.WriteString(e.substitute(line))
		e.out.WriteString("\n")
	}
	return nil
}

func (e *engine) dispatch(line string, f *frame) error {
	name, rest := splitDirective(line)
	switch name {
	case "set":
		return e.doSet(rest)
	case "env":
		return e.guard("env", func() error { return e.doEnv(rest) })
	case "import":
		return e.guard("import", func() error { return e.doImport(rest, f) })
	case "json":
		return e.guard("json", func() error { return e.doJSON(rest) })
	case "read":
		return e.guard("read", func() error { return e.doRead(rest) })
	case "emit":
		return e.guard("emit", func() error { return e.doEmit(rest) })
	case "pipe":
		return e.guard("pipe", func() error { return e.doPipe(rest, f) })
	case "run":
		return e.guard("run", func() error { return e.doRun(rest, f) })
	default:
		// !def, !use and !schemas are schema directives that belong to the
		// tauq parser, not the preprocessor: pass through verbatim with
		// variable substitution applied, like any other line.
		e.out.WriteString(e.substitute(line))
		e.out.WriteString("\n")
		return nil
	}
}

// guard applies the safe-mode gate (spec.md §4.E "Safe mode") before
// running a directive that touches the filesystem or spawns a process.
func (e *engine) guard(name string, fn func() error) error {
	if e.safeMode {
		return &tauq.Error{Kind: tauq.ErrDirective, Message: "!" + name + " is disabled in safe mode"}
	}
	return fn()
}

func splitDirective(line string) (name, rest string) {
	body := strings.TrimPrefix(line, "!")
	i := strings.IndexAny(body, " \t")
	if i < 0 {
		return body, ""
	}
	return body[:i], strings.TrimSpace(body[i+1:])
}

func (e *engine) doSet(rest string) error {
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) == 0 || parts[0] == "" {
		return &tauq.Error{Kind: tauq.ErrDirective, Message: "!set requires KEY VALUE"}
	}
	key := parts[0]
	val := ""
	if len(parts) == 2 {
		val = e.substitute(strings.TrimSpace(parts[1]))
	}
	e.vars[key] = val
	return nil
}

func (e *engine) doEnv(rest string) error {
	name := strings.TrimSpace(rest)
	if name == "" {
		return &tauq.Error{Kind: tauq.ErrDirective, Message: "!env requires a variable name"}
	}
	e.out.WriteString(name)
	e.out.WriteByte(' ')
	e.out.WriteString(strconv.Quote(os.Getenv(name)))
	e.out.WriteString("\n")
	return nil
}

func (e *engine) doImport(rest string, f *frame) error {
	path, err := unquoteArg(rest)
	if err != nil {
		return err
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(f.dir, full)
	}
	canon, err := filepath.Abs(full)
	if err != nil {
		return &tauq.Error{Kind: tauq.ErrResource, Message: "!import: " + err.Error()}
	}
	if e.visited[canon] {
		return &tauq.Error{Kind: tauq.ErrResource, Message: "!import cycle detected: " + canon}
	}
	if len(e.stack)+1 > MaxImportDepth {
		return &tauq.Error{Kind: tauq.ErrResource, Message: "!import depth exceeds " + strconv.Itoa(MaxImportDepth)}
	}
	data, err := os.ReadFile(canon)
	if err != nil {
		return &tauq.Error{Kind: tauq.ErrResource, Message: "!import: " + err.Error()}
	}
	e.visited[canon] = true
	e.stack = append(e.stack, &frame{
		lines: splitLines(string(data)),
		dir:   filepath.Dir(canon),
		label: canon,
	})
	return nil
}

func (e *engine) doJSON(rest string) error {
	path, err := unquoteArg(rest)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &tauq.Error{Kind: tauq.ErrResource, Message: "!json: " + err.Error()}
	}
	v, err := tauq.FromJSONText(string(data))
	if err != nil {
		return &tauq.Error{Kind: tauq.ErrResource, Message: "!json: " + err.Error()}
	}
	e.out.WriteString(tauq.Emit(v, tauq.ModePretty))
	e.out.WriteString("\n")
	return nil
}

func (e *engine) doRead(rest string) error {
	path, err := unquoteArg(rest)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return &tauq.Error{Kind: tauq.ErrResource, Message: "!read: " + err.Error()}
	}
	quoted, err := jsonQuote(string(data))
	if err != nil {
		return &tauq.Error{Kind: tauq.ErrIO, Message: "!read: " + err.Error()}
	}
	e.out.WriteString(quoted)
	e.out.WriteString("\n")
	return nil
}

func (e *engine) doEmit(rest string) error {
	argv, err := splitArgs(rest)
	if err != nil {
		return err
	}
	if len(argv) == 0 {
		return &tauq.Error{Kind: tauq.ErrDirective, Message: "!emit requires a command"}
	}
	stdout, err := runProcess(argv, "")
	if err != nil {
		return err
	}
	e.out.WriteString(stdout)
	return nil
}

// doPipe captures the rest of the CURRENT frame only — the chosen
// resolution of spec.md §9's open question on !pipe scope — and feeds it
// to the command's stdin. Nothing after it in this frame is parsed as TQN.
func (e *engine) doPipe(rest string, f *frame) error {
	argv, err := splitArgs(rest)
	if err != nil {
		return err
	}
	if len(argv) == 0 {
		return &tauq.Error{Kind: tauq.ErrDirective, Message: "!pipe requires a command"}
	}
	remainder := strings.Join(f.lines[f.idx:], "\n")
	f.idx = len(f.lines)
	stdout, err := runProcess(argv, remainder)
	if err != nil {
		return err
	}
	e.out.WriteString(stdout)
	return nil
}

func (e *engine) doRun(rest string, f *frame) error {
	interp := strings.TrimSpace(rest)
	interp = strings.TrimSuffix(interp, "{")
	interp = strings.TrimSpace(interp)
	if interp == "" {
		return &tauq.Error{Kind: tauq.ErrDirective, Message: "!run requires an interpreter"}
	}
	var body []string
	closed := false
	for f.idx < len(f.lines) {
		line := f.lines[f.idx]
		f.idx++
		if strings.TrimSpace(line) == "}" {
			closed = true
			break
		}
		body = append(body, line)
	}
	if !closed {
		return &tauq.Error{Kind: tauq.ErrSyntax, Message: "!run block missing closing '}'"}
	}
	tmp, err := os.CreateTemp("", "tauq-run-*")
	if err != nil {
		return &tauq.Error{Kind: tauq.ErrResource, Message: "!run: " + err.Error()}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(strings.Join(body, "\n")); err != nil {
		tmp.Close()
		return &tauq.Error{Kind: tauq.ErrResource, Message: "!run: " + err.Error()}
	}
	if err := tmp.Close(); err != nil {
		return &tauq.Error{Kind: tauq.ErrResource, Message: "!run: " + err.Error()}
	}

	stdout, err := runProcess([]string{interp, tmpPath}, "")
	if err != nil {
		return err
	}
	e.out.WriteString(stdout)
	return nil
}

func unquoteArg(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return "", &tauq.Error{Kind: tauq.ErrDirective, Message: "invalid quoted argument: " + s}
		}
		return unq, nil
	}
	if s == "" {
		return "", &tauq.Error{Kind: tauq.ErrDirective, Message: "expected a quoted path argument"}
	}
	return s, nil
}
