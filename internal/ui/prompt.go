package ui

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"golang.org/x/term"
)

// IsInteractive reports whether stdin and stdout are both terminals
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Confirm asks a yes/no question
func Confirm(message string, defaultYes bool) (bool, error) {
	var ok bool
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultYes,
	}

	if err := survey.AskOne(prompt, &ok); err != nil {
		return false, err
	}

	return ok, nil
}

// Select asks the user to pick one of options. def is preselected when it
// is one of them.
func Select(message string, options []string, def string) (string, error) {
	var choice string
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	for _, opt := range options {
		if opt == def {
			prompt.Default = def
			break
		}
	}

	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", err
	}

	return choice, nil
}

// SelectDocumentType asks the user to pick a document type
func SelectDocumentType(options []string, suggested string) (string, error) {
	return Select("Document type:", options, suggested)
}

// PromptInput asks for a line of text
func PromptInput(message, def string) (string, error) {
	var answer string
	prompt := &survey.Input{
		Message: message,
		Default: def,
	}

	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", err
	}

	return answer, nil
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	green := color.New(color.FgGreen, color.Bold)
	green.Printf("✓ %s\n", message)
}

// ShowError displays an error message
func ShowError(message string) {
	red := color.New(color.FgRed, color.Bold)
	red.Fprintf(os.Stderr, "✗ %s\n", message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	yellow := color.New(color.FgYellow)
	yellow.Fprintf(os.Stderr, "! %s\n", message)
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	blue := color.New(color.FgBlue)
	blue.Println(message)
}

// ShowSection displays a section heading
func ShowSection(title string) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\n%s\n", title)
	fmt.Println()
}
