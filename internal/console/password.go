package console

import (
	"io"
	"os"

	"golang.org/x/term"
)

// PromptPassword reads a password with echo disabled when rw is a
// real terminal. Anywhere else (tests, piped input) it falls back to
// a plain line read.
func PromptPassword(rw io.ReadWriter, prompt string) (string, error) {
	if f, ok := rw.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if _, err := rw.Write([]byte(prompt)); err != nil {
			return "", err
		}
		pw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		rw.Write([]byte("\n"))
		return string(pw), nil
	}

	return Prompt(rw, prompt)
}
