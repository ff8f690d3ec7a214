package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

var errNoTerminal = errors.New("no terminal to prompt on; use --passphrase-stdin")

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Swapped in tests.
var (
	stdinIsTerminal = func() bool { return isTerminal(os.Stdin) }
	readHidden      = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
)

// promptForKey reads a hidden passphrase from the controlling terminal,
// exactly as typed.
func (a *app) promptForKey(prompt string) (string, error) {
	if !stdinIsTerminal() {
		return "", errNoTerminal
	}
	fmt.Fprint(a.errOut, prompt)
	pass, err := readHidden()
	fmt.Fprintln(a.errOut)
	return string(pass), err
}

// readLine reads one line from the command's input, without the newline.
func (a *app) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readPassphrase takes the passphrase from input when fromStdin is set,
// otherwise prompts on the terminal.
func (a *app) readPassphrase(fromStdin bool, prompt string) (string, error) {
	if fromStdin {
		return a.readLine()
	}
	return a.promptForKey(prompt)
}

// startSpinner shows message with a spinner while work runs. Off a terminal,
// or when logging verbosely, it logs the message instead. The returned func
// stops the spinner and prints final when non-empty.
func (a *app) startSpinner(message string) func(final string) {
	if a.flags.verbose || a.flags.debug || !isTerminal(a.errOut) {
		a.logger.Info(message)
		return func(final string) {
			if final != "" {
				fmt.Fprintln(a.errOut, final)
			}
		}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.errOut))
	s.Suffix = " " + message
	if err := s.Color("cyan"); err != nil {
		a.logger.Debug("spinner color", "err", err)
	}
	s.Start()
	return func(final string) {
		s.Stop()
		if final != "" {
			fmt.Fprintln(a.errOut, final)
		}
	}
}
