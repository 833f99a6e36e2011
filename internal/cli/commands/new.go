package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SRI-AIC/valet-sub000/internal/cli/ui"
	"github.com/SRI-AIC/valet-sub000/internal/rulelsp"
)

var newRuleFile string

var kindOps = map[string]string{
	"token test":           ":",
	"phrase":                "->",
	"phrase (case-insens.)": "i->",
	"parse":                 "^",
	"coordinator":           "~",
	"frame":                 "$",
}

// NewNewCommand interactively appends a new rule definition to a rule
// file, prompting for a name, extractor kind, and expression, then
// re-lints the file so a typo is caught before it's saved.
func NewNewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Interactively add a rule to a rule file",
		RunE:  runNew,
	}
	cmd.Flags().StringVarP(&newRuleFile, "file", "f", "", "rule file to append to (created if it doesn't exist)")
	return cmd
}

func runNew(cmd *cobra.Command, args []string) error {
	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)

	path := newRuleFile
	if path == "" {
		prompt := &survey.Input{Message: "Rule file:"}
		if err := survey.AskOne(prompt, &path, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	var name string
	if err := survey.AskOne(&survey.Input{Message: "Rule name:"}, &name, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	if err := validateRuleName(name); err != nil {
		return err
	}

	kindNames := make([]string, 0, len(kindOps))
	for k := range kindOps {
		kindNames = append(kindNames, k)
	}
	var kind string
	if err := survey.AskOne(&survey.Select{Message: "Extractor kind:", Options: kindNames}, &kind); err != nil {
		return err
	}

	var expr string
	if err := survey.AskOne(&survey.Input{Message: "Expression:"}, &expr, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	line := fmt.Sprintf("%s: %s\n", name, expr)
	if op := kindOps[kind]; op != ":" {
		line = fmt.Sprintf("%s %s %s\n", name, op, expr)
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	combined := string(existing)
	if combined != "" && !strings.HasSuffix(combined, "\n") {
		combined += "\n"
	}
	combined += line

	if diags := rulelsp.Diagnostics(combined); len(diags) > 0 {
		fmt.Fprintln(os.Stderr, ui.CompileError(diags[0].Message, nil, false))
		return fmt.Errorf("new: generated statement failed to parse")
	}

	if err := os.WriteFile(path, []byte(combined), 0o644); err != nil {
		return err
	}

	infoColor.Printf("Appended to %s:\n", path)
	fmt.Print("  ", line)
	successColor.Println("✓ rule added")
	return nil
}

func validateRuleName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("rule name must not be empty")
	}
	for _, r := range name {
		if !(r == '_' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return fmt.Errorf("rule name %q may only contain letters, digits, underscores, and dots", name)
		}
	}
	return nil
}
