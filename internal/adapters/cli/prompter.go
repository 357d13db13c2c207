package cli

import (
	"tg-stats/internal/domain/auth"
	"tg-stats/internal/infra/pr"
)

// Prompter реализует auth.Prompter и auth.SecretAsker поверх общего readline.
type Prompter struct{}

var (
	_ auth.Prompter    = Prompter{}
	_ auth.SecretAsker = Prompter{}
)

func (Prompter) AskLine(prompt string) (string, error) {
	return pr.ReadLine(prompt)
}

// AskSecret читает пароль без эха.
func (Prompter) AskSecret(prompt string) (string, error) {
	return pr.ReadPassword(prompt)
}

func (Prompter) Display(text string) {
	pr.Println(text)
}
