package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes = "y"
	No  = "n"
)

var yesNoConstraints = []string{Yes, No}

func YesOrNo(question string) (string, error) {
	return Prompt(question, yesNoConstraints...)
}

// Prompt asks a question. With constraints the answer is one of them and the
// first one is the default; without, the answer is free text.
func Prompt(question string, constraints ...string) (string, error) {
	if len(constraints) == 0 {
		return readLine(question + " ")
	}
	var prompt strings.Builder
	prompt.WriteString(question)
	prompt.WriteString(" [")
	prompt.WriteString(strings.ToUpper(constraints[0]))
	for i := 1; i < len(constraints); i++ {
		prompt.WriteString("/")
		prompt.WriteString(constraints[i])
	}
	prompt.WriteString("]: ")
	response, err := readLine(prompt.String())
	if err != nil {
		return "", err
	}
	normalized := strings.ToLower(strings.TrimSpace(response))
	for _, c := range constraints {
		if normalized == strings.ToLower(c) {
			return c, nil
		}
	}
	// no input or no constraint matched, return default
	return constraints[0], nil
}

// PromptDefault asks a free text question, returning def on empty input.
func PromptDefault(question, def string) (string, error) {
	response, err := readLine(fmt.Sprintf("%s (%s): ", question, def))
	if err != nil {
		return "", err
	}
	response = strings.TrimSpace(response)
	if response == "" {
		return def, nil
	}
	return response, nil
}

// PromptInt accepts decimal or 0x-prefixed hex, returning def on empty input.
func PromptInt(question string, def int) (int, error) {
	for {
		response, err := PromptDefault(question, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		value, err := strconv.ParseInt(response, 0, 64)
		if err == nil {
			return int(value), nil
		}
		Warnf("%q is not a number", response)
	}
}

func readLine(prompt string) (string, error) {
	rl, err := readline.New(prompt)
	if err != nil {
		return "", err
	}
	defer func() { _ = rl.Close() }()
	return rl.Readline()
}
