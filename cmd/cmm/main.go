package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"cmm/interpreter-go/pkg/driver"
	"cmm/interpreter-go/pkg/interpreter"
	"cmm/interpreter-go/pkg/runtime"
)

const cliToolVersion = "cmm 0.0.0-dev"

const (
	exitOK      = 0
	exitUsage   = 1
	exitRuntime = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return exitUsage
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return exitOK
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return exitOK
	case "run":
		return runEntry(args[1:])
	case "deps":
		return runDeps(args[1:])
	case "repl":
		return runRepl(args[1:])
	default:
		return runEntry(args)
	}
}

type runOptions struct {
	path         string
	maxCallDepth *int
	strict       bool
	args         []string
	hasArgs      bool
}

func parseRunArgs(args []string) (runOptions, error) {
	opts := runOptions{path: "."}
	havePath := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			opts.args = append([]string{}, args[i+1:]...)
			opts.hasArgs = true
			return opts, nil
		case arg == "--strict":
			opts.strict = true
		case arg == "--max-depth" || strings.HasPrefix(arg, "--max-depth="):
			raw, ok := strings.CutPrefix(arg, "--max-depth=")
			if !ok {
				if i+1 >= len(args) {
					return opts, errors.New("--max-depth requires a value")
				}
				i++
				raw = args[i]
			}
			depth, err := strconv.Atoi(raw)
			if err != nil || depth < 0 {
				return opts, fmt.Errorf("invalid --max-depth %q", raw)
			}
			opts.maxCallDepth = &depth
		case strings.HasPrefix(arg, "-") && arg != "-":
			return opts, fmt.Errorf("unknown flag %s", arg)
		case !havePath:
			opts.path = arg
			havePath = true
		default:
			return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(args[i:], " "))
		}
	}
	return opts, nil
}

func runEntry(args []string) int {
	opts, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cmm run: %v\n", err)
		return exitUsage
	}

	program, err := driver.Load(opts.path, newFetcher())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", opts.path, err)
		return exitUsage
	}

	mainArgs := program.Args
	if opts.hasArgs {
		mainArgs = parseArgs(opts.args)
	}

	interp := interpreter.New(interpreterOptions(program, opts)...)
	result, err := interp.Evaluate(program.Declarations, mainArgs)
	if err != nil {
		reportEvaluationError(err)
		return exitRuntime
	}
	fmt.Fprintln(os.Stdout, runtime.Render(result))
	return exitOK
}

func interpreterOptions(program *driver.Program, opts runOptions) []interpreter.Option {
	out := []interpreter.Option{
		interpreter.WithOutput(os.Stdout),
		interpreter.WithSourceName(program.Source()),
	}
	switch {
	case opts.maxCallDepth != nil:
		out = append(out, interpreter.WithMaxCallDepth(*opts.maxCallDepth))
	case program.MaxCallDepth != nil:
		out = append(out, interpreter.WithMaxCallDepth(*program.MaxCallDepth))
	}
	if opts.strict || program.Strict {
		out = append(out, interpreter.WithStrictDeclarations())
	}
	return out
}

func reportEvaluationError(err error) {
	if code := interpreter.IssueCode(err); code != "" {
		fmt.Fprintf(os.Stderr, "error %s: %v\n", code, err)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func runDeps(args []string) int {
	dir := "."
	switch len(args) {
	case 0:
	case 1:
		dir = args[0]
	default:
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(args[1:], " "))
		return exitUsage
	}

	manifestPath, ok := driver.FindManifest(dir)
	if !ok {
		fmt.Fprintf(os.Stderr, "%s not found in %s\n", driver.ManifestName, dir)
		return exitUsage
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load manifest: %v\n", err)
		return exitUsage
	}
	program, err := driver.Resolve(manifest, newFetcher())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve dependencies: %v\n", err)
		return exitUsage
	}
	for _, pkg := range program.Packages {
		version := pkg.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(os.Stdout, "%s %s %s\n", pkg.Name, version, pkg.Source)
	}
	return exitOK
}

// newFetcher returns nil when no cache directory can be located; path-only
// packages still resolve without one.
func newFetcher() driver.Fetcher {
	dir, err := driver.DefaultCacheDir()
	if err != nil {
		return nil
	}
	return driver.NewGitFetcher(dir)
}

// parseArgs converts command-line words to values: integers first, then
// booleans, and anything else as a string with surrounding quotes removed.
func parseArgs(words []string) []runtime.Value {
	out := make([]runtime.Value, 0, len(words))
	for _, word := range words {
		out = append(out, parseArg(word))
	}
	return out
}

func parseArg(word string) runtime.Value {
	if i, err := strconv.ParseInt(word, 10, 64); err == nil {
		return runtime.IntegerValue{Val: i}
	}
	switch word {
	case "true":
		return runtime.BoolValue{Val: true}
	case "false":
		return runtime.BoolValue{Val: false}
	}
	if len(word) >= 2 {
		if word[0] == '"' && word[len(word)-1] == '"' {
			if s, err := strconv.Unquote(word); err == nil {
				return runtime.StringValue{Val: s}
			}
		}
		if word[0] == '\'' && word[len(word)-1] == '\'' {
			return runtime.StringValue{Val: word[1 : len(word)-1]}
		}
	}
	return runtime.StringValue{Val: word}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  cmm run [path] [--max-depth N] [--strict] [-- args...]")
	fmt.Fprintln(os.Stderr, "  cmm <path> [-- args...]")
	fmt.Fprintln(os.Stderr, "  cmm deps [dir]")
	fmt.Fprintln(os.Stderr, "  cmm repl [path]")
	fmt.Fprintln(os.Stderr, "  cmm version")
}
