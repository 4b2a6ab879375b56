// pkg/interaction/prompt.go

package interaction

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// ReadLine prompts the user with a label and returns a trimmed line of input.
// Prompts go to stderr so stdout stays clean for automation.
func ReadLine(ctx context.Context, reader *bufio.Reader, label string) (string, error) {
	log := otelzap.Ctx(ctx)
	log.Debug("Prompting user for input", zap.String("label", label))

	_, _ = fmt.Fprint(os.Stderr, label+": ")

	text, err := reader.ReadString('\n')
	if err != nil {
		log.Error("Failed to read user input", zap.Error(err))
		return "", err
	}

	value := strings.TrimSpace(text)
	log.Debug("User input received", zap.String("value", value))
	return value, nil
}

// PromptYesNo asks a yes/no question and returns true/false. Falls back to
// the default on unrecognized input.
func PromptYesNo(ctx context.Context, reader *bufio.Reader, prompt string, defaultYes bool) bool {
	log := otelzap.Ctx(ctx)

	defPrompt := "Y/n"
	if !defaultYes {
		defPrompt = "y/N"
	}
	label := fmt.Sprintf("%s [%s]", prompt, defPrompt)

	input, err := ReadLine(ctx, reader, label)
	if err != nil {
		log.Error("Failed to read yes/no input", zap.Error(err))
		return defaultYes
	}

	if answer, ok := NormalizeYesNoInput(input); ok {
		log.Info("User answered", zap.String("prompt", prompt), zap.Bool("answer", answer))
		return answer
	}

	log.Info("Default applied", zap.String("prompt", prompt), zap.Bool("default_yes", defaultYes))
	return defaultYes
}

// PromptValidated asks for input until the validator accepts it.
func PromptValidated(ctx context.Context, reader *bufio.Reader, label string, validator func(string) error) (string, error) {
	for {
		input, err := ReadLine(ctx, reader, label)
		if err != nil {
			return "", err
		}
		if verr := validator(input); verr != nil {
			fmt.Fprintln(os.Stderr, verr)
			continue
		}
		return input, nil
	}
}

// NormalizeYesNoInput returns true for affirmative responses like "y" or
// "yes". All free-text answers are normalized case-insensitively.
func NormalizeYesNoInput(input string) (answer, ok bool) {
	input = strings.TrimSpace(strings.ToLower(input))
	switch input {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	}
	return false, false
}

// IsTerminal reports whether stdin is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
