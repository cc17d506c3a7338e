// Package repl implements the interactive shell and the file batch loader.
// Everything user-visible (prompts, banners, result tables) lives here; the
// execution engine itself never prints.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/agequery/agerepl/internal/query"
	"github.com/agequery/agerepl/internal/tui"
)

// Asker is the LLM agent surface the shell needs.
type Asker interface {
	Ask(ctx context.Context, input string) (string, error)
}

// Session is one interactive shell over an executor and an optional agent.
// The \log and \llm toggles are session state, passed explicitly to every
// render decision; there is no package-level mode.
type Session struct {
	executor    query.StatementExecutor
	agent       Asker
	historyFile string
	in          io.Reader
	out         io.Writer
	log         *zap.SugaredLogger

	logEnabled bool
	llmEnabled bool
}

// NewSession builds a shell. A nil agent starts the session in cypher-only
// mode.
func NewSession(executor query.StatementExecutor, agent Asker, historyFile string, in io.Reader, out io.Writer, log *zap.SugaredLogger) *Session {
	return &Session{
		executor:    executor,
		agent:       agent,
		historyFile: historyFile,
		in:          in,
		out:         out,
		log:         log,
		llmEnabled:  agent != nil,
	}
}

// Run reads input until EOF or \q. In LLM mode every non-empty line is one
// turn for the agent; in cypher mode lines accumulate until one ends with a
// semicolon, then the whole buffer executes as a batch.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "End Cypher statements with a semicolon (;) to execute.")
	fmt.Fprintln(s.out, "Use Ctrl+D or \\q to quit. \\h for list of commands.")
	fmt.Fprintln(s.out)

	history := s.openHistory()
	if history != nil {
		defer history.Close()
	}

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var buffer []string
	s.prompt()
	for scanner.Scan() {
		line := scanner.Text()
		stripped := strings.TrimSpace(line)

		switch {
		case len(buffer) == 0 && stripped == "":
			// nothing pending

		case len(buffer) == 0 && strings.HasPrefix(stripped, "\\"):
			if quit := s.handleCommand(stripped); quit {
				return nil
			}

		case s.llmEnabled:
			s.appendHistory(history, stripped)
			s.askAgent(ctx, stripped)

		default:
			buffer = append(buffer, line)
			if strings.HasSuffix(stripped, ";") {
				text := strings.Join(buffer, "\n")
				buffer = buffer[:0]
				s.appendHistory(history, text)
				s.executeCypher(ctx, text)
			}
		}
		s.prompt()
	}

	fmt.Fprintln(s.out, "\nExiting REPL.")
	return scanner.Err()
}

func (s *Session) prompt() {
	fmt.Fprint(s.out, "cypher> ")
}

// handleCommand processes a backslash command and reports whether the
// session should end.
func (s *Session) handleCommand(command string) bool {
	switch {
	case command == `\q`:
		return true

	case command == `\h`:
		fmt.Fprintln(s.out, "Available commands:")
		fmt.Fprintln(s.out, `  \q              Quit the REPL`)
		fmt.Fprintln(s.out, `  \log [on|off]   Toggle logging of LLM and DB interactions`)
		fmt.Fprintln(s.out, `  \llm [on|off]   Toggle LLM usage (off executes Cypher directly)`)
		fmt.Fprintln(s.out, `  \h              Show this help message`)

	case strings.HasPrefix(command, `\log`):
		if val, ok := parseToggle(strings.TrimSpace(strings.TrimPrefix(command, `\log`))); ok {
			s.logEnabled = val
			fmt.Fprintf(s.out, "Logging %s.\n", state(val))
		} else {
			fmt.Fprintln(s.out, `Usage: \log [on|off|true|false]`)
		}

	case strings.HasPrefix(command, `\llm`):
		if val, ok := parseToggle(strings.TrimSpace(strings.TrimPrefix(command, `\llm`))); ok {
			s.llmEnabled = val
			fmt.Fprintf(s.out, "LLM %s.\n", state(val))
		} else {
			fmt.Fprintln(s.out, `Usage: \llm [on|off|true|false]`)
		}

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (\\h for help)\n", command)
	}
	return false
}

func (s *Session) askAgent(ctx context.Context, input string) {
	if s.agent == nil {
		fmt.Fprintln(s.out, `LLM is not available. Use \llm off to disable LLM mode or check your configuration.`)
		return
	}

	answer, err := s.agent.Ask(ctx, input)
	if err != nil {
		fmt.Fprintf(s.out, "LLM error: %v\n", err)
		return
	}
	if answer == "" {
		return
	}
	if s.logEnabled {
		s.echo("LLM", answer)
	} else {
		fmt.Fprintln(s.out, answer)
	}
}

func (s *Session) executeCypher(ctx context.Context, text string) {
	if s.logEnabled {
		s.echo("TOOL", text)
	}

	outcome := s.executor.ExecuteBatch(ctx, text)
	var rendered string
	if outcome.Failed() {
		rendered = outcome.Err
	} else {
		rendered = tui.Format(outcome.Rows)
	}

	if s.logEnabled {
		s.echo("DB", rendered)
	} else {
		fmt.Fprintln(s.out, rendered)
	}
}

// echo prints each line of text with a bracketed prefix, mirroring the
// \log output channel.
func (s *Session) echo(prefix, text string) {
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(s.out, "[%s] %s\n", prefix, line)
	}
}

func (s *Session) openHistory() *os.File {
	if s.historyFile == "" {
		return nil
	}
	f, err := os.OpenFile(s.historyFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		s.log.Debugw("history file unavailable", "path", s.historyFile, "error", err)
		return nil
	}
	return f
}

func (s *Session) appendHistory(f *os.File, entry string) {
	if f == nil {
		return
	}
	if _, err := fmt.Fprintln(f, entry); err != nil {
		s.log.Debugw("history append failed", "error", err)
	}
}

// parseToggle interprets on/off/true/false; ok is false for anything else.
func parseToggle(value string) (val, ok bool) {
	switch strings.ToLower(value) {
	case "on", "true":
		return true, true
	case "off", "false":
		return false, true
	default:
		return false, false
	}
}

func state(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
