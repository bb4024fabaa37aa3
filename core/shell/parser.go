// Package shell turns command lines into jobs.
//
// The accepted language is a small subset of
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html
//
//  1. The line is split into pipeline segments on every '|'. There is no
//     quoting, so a literal '|' always splits.
//  2. A trailing '&' runs the whole pipeline in the background.
//  3. Each segment is broken into words on blanks.
//  4. Words containing '*' or '?' are expanded against the filesystem.
//  5. The first word starting with '<' or '>' begins the redirections; every
//     word after it must be a redirection too.
package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/josephlewis42/psh/core/builtins"
	"github.com/josephlewis42/psh/core/jobs"
	"github.com/spf13/afero"
)

// Delimiters separate words within a segment.
const Delimiters = " \t\r\n\a"

var (
	// ErrMissingRedirectTarget is returned for a bare '<' or '>' at the end
	// of a segment.
	ErrMissingRedirectTarget = errors.New("missing redirection target")
	// ErrUnexpectedWord is returned for a plain word after a redirection.
	ErrUnexpectedWord = errors.New("unexpected word after redirection")
	// ErrEmptySegment is returned for a pipeline stage without a command.
	ErrEmptySegment = errors.New("empty command in pipeline")
)

// Parser builds jobs from lines.
type Parser struct {
	// Registry decides which commands are builtins. A nil Registry makes
	// every command external.
	Registry *builtins.Registry
	// Fs is used for glob expansion.
	Fs afero.Fs
	// KeepUnmatchedGlobs keeps a pattern that matches nothing as a literal
	// word instead of dropping it.
	KeepUnmatchedGlobs bool
}

// NewParser creates a parser expanding globs against fs.
func NewParser(registry *builtins.Registry, fs afero.Fs) *Parser {
	return &Parser{
		Registry: registry,
		Fs:       fs,
	}
}

// Build parses a full line into a job. An empty line produces a job with no
// processes.
func (p *Parser) Build(line string) (*jobs.Job, error) {
	line = strings.TrimSpace(line)

	mode := jobs.Foreground
	if strings.HasSuffix(line, "&") {
		mode = jobs.Background
		line = strings.TrimSpace(strings.TrimSuffix(line, "&"))
	}

	job := jobs.NewJob(line, mode)
	if line == "" {
		return job, nil
	}

	for _, segment := range strings.Split(line, "|") {
		proc, err := p.ParseSegment(segment)
		if err != nil {
			return nil, err
		}
		if len(proc.Args) == 0 {
			return nil, fmt.Errorf("%q: %w", strings.TrimSpace(segment), ErrEmptySegment)
		}
		job.Processes = append(job.Processes, proc)
	}

	return job, nil
}

// ParseSegment parses the text of a single pipeline stage. An empty segment
// yields an external process with no arguments.
func (p *Parser) ParseSegment(segment string) (*jobs.Process, error) {
	words := p.expand(Split(segment))

	argc := len(words)
	for i, word := range words {
		if isRedirect(word) {
			argc = i
			break
		}
	}

	args := make([]string, argc)
	copy(args, words[:argc])
	proc := jobs.NewProcess(segment, args, p.kind(args))

	for i := argc; i < len(words); i++ {
		op, target := splitRedirect(words[i])
		if op == "" {
			return nil, fmt.Errorf("%q: %w", words[i], ErrUnexpectedWord)
		}
		if target == "" {
			if i+1 >= len(words) {
				return nil, fmt.Errorf("%s: %w", op, ErrMissingRedirectTarget)
			}
			i++
			target = words[i]
		}

		switch op {
		case "<":
			proc.InPath = target
		case ">":
			proc.OutPath, proc.Append = target, false
		case ">>":
			proc.OutPath, proc.Append = target, true
		}
	}

	return proc, nil
}

// Split breaks a segment into words on Delimiters.
func Split(segment string) []string {
	return strings.FieldsFunc(segment, func(r rune) bool {
		return strings.ContainsRune(Delimiters, r)
	})
}

func (p *Parser) kind(args []string) jobs.Kind {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	if p.Registry == nil {
		return jobs.External
	}
	if _, ok := p.Registry.Lookup(name); ok {
		return jobs.Builtin
	}
	return jobs.External
}

// expand replaces glob patterns with their matches.
func (p *Parser) expand(words []string) []string {
	if p.Fs == nil {
		return words
	}

	out := make([]string, 0, len(words))
	for _, word := range words {
		if !strings.ContainsAny(word, "*?") {
			out = append(out, word)
			continue
		}

		matches, err := afero.Glob(p.Fs, word)
		switch {
		case err != nil:
			out = append(out, word)
		case len(matches) == 0:
			if p.KeepUnmatchedGlobs {
				out = append(out, word)
			}
		default:
			out = append(out, matches...)
		}
	}
	return out
}

func isRedirect(word string) bool {
	return strings.HasPrefix(word, "<") || strings.HasPrefix(word, ">")
}

// splitRedirect splits a redirection word into its operator and the fused
// target, if any.
func splitRedirect(word string) (op, target string) {
	switch {
	case strings.HasPrefix(word, ">>"):
		return ">>", word[2:]
	case strings.HasPrefix(word, ">"):
		return ">", word[1:]
	case strings.HasPrefix(word, "<"):
		return "<", word[1:]
	default:
		return "", ""
	}
}
