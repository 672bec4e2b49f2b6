package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"blemap/internal/errors"
	"blemap/internal/matcher"
)

var (
	matchIdentifier bool
	matchSignature  bool
	matchCall       bool
	matchSizeLimit  int
	matchFormat     string
)

var matchCmd = &cobra.Command{
	Use:   "match [flags] TEXT...",
	Short: "Classify a piece of text against the category database",
	Long: `Classify a piece of text against the category database.

Arguments are joined with single spaces. By default the text is matched in
text mode (tokenised, disambiguated when configured). Use --identifier for
code names such as "getBatteryLevel", --signature for a method signature such
as "<com.example.Battery: int getLevel()>", or --call for a plain keyword scan.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().BoolVar(&matchIdentifier, "identifier", false, "Match in identifier mode")
	matchCmd.Flags().BoolVar(&matchSignature, "signature", false, "Treat TEXT as a method signature")
	matchCmd.Flags().BoolVar(&matchCall, "call", false, "Plain keyword scan ignoring short roots")
	matchCmd.Flags().IntVar(&matchSizeLimit, "size-limit", matcher.DefaultSizeLimit, "Root length ignored by --call unless at the end")
	matchCmd.Flags().StringVar(&matchFormat, "format", "json", "Output format (json, human)")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	set := 0
	for _, b := range []bool{matchIdentifier, matchSignature, matchCall} {
		if b {
			set++
		}
	}
	if set > 1 {
		return errors.New(errors.ConfigInvalid, "--identifier, --signature and --call are exclusive", nil)
	}

	e, err := newEnv(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	m, err := e.loadMatcher()
	if err != nil {
		return err
	}

	text := strings.Join(args, " ")
	var res matcher.Result
	switch {
	case matchSignature:
		var ok bool
		res, ok = m.MatchSignature(text)
		if !ok {
			return errors.New(errors.InputMissing, "not a method signature: "+text, nil)
		}
	case matchCall:
		res = m.MatchCall(text, matchSizeLimit)
	case matchIdentifier:
		res = m.Match(text, matcher.Identifier)
	default:
		res = m.Match(text, matcher.Text)
	}

	out, err := FormatResponse(&MatchResponseCLI{Text: text, Summary: res.Summary()}, OutputFormat(matchFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
