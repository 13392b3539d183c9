package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"cmm/interpreter-go/pkg/ast"
	"cmm/interpreter-go/pkg/driver"
	"cmm/interpreter-go/pkg/interpreter"
	"cmm/interpreter-go/pkg/runtime"
)

const (
	replPrompt  = "cmm> "
	historyFile = ".cmm_history"
)

const replHelp = `Name arg...        call a function and print its result
:do Name arg...    call a procedure
:globals           list global variables
:functions         list declared functions
:quit              leave the repl`

// replSession holds a loaded program between input lines.
type replSession struct {
	program *interpreter.Program
	out     io.Writer
	errOut  io.Writer
}

func newReplSession(path string, out, errOut io.Writer) (*replSession, error) {
	var (
		decls []ast.Declaration
		opts  = []interpreter.Option{interpreter.WithOutput(out)}
	)
	if path != "" {
		program, err := driver.Load(path, newFetcher())
		if err != nil {
			return nil, err
		}
		decls = program.Declarations
		opts = append(opts, interpreter.WithSourceName(program.Source()))
		if program.MaxCallDepth != nil {
			opts = append(opts, interpreter.WithMaxCallDepth(*program.MaxCallDepth))
		}
		if program.Strict {
			opts = append(opts, interpreter.WithStrictDeclarations())
		}
	}
	loaded, err := interpreter.New(opts...).Load(decls)
	if err != nil {
		return nil, err
	}
	return &replSession{program: loaded, out: out, errOut: errOut}, nil
}

// handle executes one input line and reports whether the session should end.
func (s *replSession) handle(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, ":") {
		return s.command(line)
	}
	words, err := splitWords(line)
	if err != nil {
		fmt.Fprintf(s.errOut, "error: %v\n", err)
		return false
	}
	val, err := s.program.Call(words[0], parseArgs(words[1:]))
	if err != nil {
		s.report(err)
		return false
	}
	fmt.Fprintln(s.out, runtime.Render(val))
	return false
}

func (s *replSession) command(line string) bool {
	name, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(name) {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprintln(s.out, replHelp)
	case ":globals":
		globals := s.program.Globals()
		for _, name := range s.program.GlobalNames() {
			fmt.Fprintf(s.out, "%s = %s\n", name, runtime.Describe(globals[name]))
		}
	case ":functions":
		for _, name := range s.program.Functions() {
			fn, _ := s.program.Function(name)
			params := make([]string, 0, len(fn.Parameters))
			for _, p := range fn.Parameters {
				params = append(params, fmt.Sprintf("%s %s", p.Name, p.DeclaredType))
			}
			note := ""
			switch {
			case interpreter.IsBuiltinFunction(name):
				note = " (built-in in expressions)"
			case interpreter.IsBuiltinProcedure(name):
				note = " (built-in in procedure calls)"
			}
			fmt.Fprintf(s.out, "%s(%s) %s%s\n", name, strings.Join(params, ", "), fn.ReturnType, note)
		}
	case ":do":
		words, err := splitWords(rest)
		if err != nil {
			fmt.Fprintf(s.errOut, "error: %v\n", err)
			return false
		}
		if len(words) == 0 {
			fmt.Fprintln(s.errOut, "error: :do needs a procedure name")
			return false
		}
		if err := s.program.Perform(words[0], parseArgs(words[1:])); err != nil {
			s.report(err)
			return false
		}
		fmt.Fprintln(s.out)
	default:
		fmt.Fprintf(s.errOut, "unknown command %s. Type :help for a list.\n", name)
	}
	return false
}

func (s *replSession) report(err error) {
	if code := interpreter.IssueCode(err); code != "" {
		fmt.Fprintf(s.errOut, "error %s: %v\n", code, err)
		return
	}
	fmt.Fprintf(s.errOut, "error: %v\n", err)
}

// splitWords splits on whitespace, keeping double- or single-quoted words
// (quotes included) together so parseArg can unquote them.
func splitWords(line string) ([]string, error) {
	var (
		words   []string
		current strings.Builder
		quote   rune
		inWord  bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			current.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
			current.WriteRune(r)
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, current.String())
				current.Reset()
				inWord = false
			}
		default:
			inWord = true
			current.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, errors.New("unterminated quote")
	}
	if inWord {
		words = append(words, current.String())
	}
	return words, nil
}

func runRepl(args []string) int {
	path := ""
	switch len(args) {
	case 0:
		if _, ok := driver.FindManifest("."); ok {
			path = "."
		}
	case 1:
		path = args[0]
	default:
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
		return exitUsage
	}

	session, err := newReplSession(path, os.Stdout, os.Stderr)
	if err != nil {
		if code := interpreter.IssueCode(err); code != "" {
			fmt.Fprintf(os.Stderr, "error %s: %v\n", code, err)
			return exitRuntime
		}
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", path, err)
		return exitUsage
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt(replPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(os.Stdout)
				return exitOK
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return exitUsage
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if session.handle(line) {
			return exitOK
		}
	}
}
