package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// PromptResult contains the result of a user prompt interaction.
type PromptResult struct {
	// Accepted is true if the user typed "y" or "yes" in any case.
	Accepted bool
	// Cancelled is true if reading the answer failed.
	Cancelled bool
}

// interactiveInput reports whether r is a terminal someone can answer from.
func interactiveInput(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && isTerminal(f)
}

// Confirm writes question followed by "[y/N]" and reads one line of input.
// Empty input and EOF decline.
func Confirm(writer io.Writer, reader io.Reader, question string) PromptResult {
	fmt.Fprintf(writer, "? %s [y/N] ", question)

	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if scanner.Err() != nil {
			return PromptResult{Cancelled: true}
		}
		return PromptResult{}
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return PromptResult{Accepted: true}
	default:
		return PromptResult{}
	}
}
