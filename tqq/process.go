package tqq

import (
	"bytes"
	osexec "os/exec"
	"strings"

	"github.com/tauqlang/tauq"
)

// runProcess spawns argv directly via the OS process layer — never through
// a shell — grounded on the argv-vector exec pattern of
// daios-ai-msg/mindscript/builtin_exec.go. A non-zero exit is a
// preprocessor error (spec.md §4.E "Failure semantics"); a spawn failure
// (executable not found, etc.) is reported the same way rather than
// silently swallowed, since the preprocessor core has no tolerant mode.
func runProcess(argv []string, stdin string) (string, error) {
	cmd := osexec.Command(argv[0], argv[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ee, ok := err.(*osexec.ExitError); ok {
			return "", &tauq.Error{
				Kind:    tauq.ErrResource,
				Message: argv[0] + " exited " + ee.Error() + ": " + stderr.String(),
			}
		}
		return "", &tauq.Error{Kind: tauq.ErrResource, Message: "failed to spawn " + argv[0] + ": " + err.Error()}
	}
	return stdout.String(), nil
}

// splitArgs tokenizes a directive's argument text on whitespace, honoring
// double-quoted segments, without any shell interpretation (spec.md §4.E
// "arguments split by a whitespace-with-quote tokenizer; not via a shell").
func splitArgs(s string) ([]string, error) {
	var args []string
	var cur strings.Builder
	inQuotes := false
	hasCur := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '"':
			inQuotes = !inQuotes
			hasCur = true
		case ch == '\\' && inQuotes && i+1 < len(s):
			i++
			cur.WriteByte(s[i])
		case (ch == ' ' || ch == '\t') && !inQuotes:
			if hasCur {
				args = append(args, cur.String())
				cur.Reset()
				hasCur = false
			}
		default:
			cur.WriteByte(ch)
			hasCur = true
		}
	}
	if inQuotes {
		return nil, &tauq.Error{Kind: tauq.ErrDirective, Message: "unterminated quoted argument: " + s}
	}
	if hasCur {
		args = append(args, cur.String())
	}
	return args, nil
}
