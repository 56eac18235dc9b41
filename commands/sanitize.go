package commands

import (
	"fmt"
	"io"
	"strings"

	"meramarket/services/sanitize"

	"github.com/spf13/cobra"
)

type sanitizeReport struct {
	Input      string              `json:"input"`
	Validation sanitize.Validation `json:"validation"`
	Detected   []sanitize.Class    `json:"detected"`
	Redacted   sanitize.Result     `json:"redacted"`
}

func newSanitizeCmd() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "sanitize [text...]",
		Short: "Check text for contact details the way listing submissions are checked",
		Long:  "Reports the validation errors and the redacted form of the text. Without arguments the text is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = strings.TrimRight(string(raw), "\r\n")
			}

			detected := sanitize.Detect(text)
			if detected == nil {
				detected = []sanitize.Class{}
			}
			return printJSON(cmd, sanitizeReport{
				Input:      text,
				Validation: sanitize.Validate(text),
				Detected:   detected,
				Redacted:   sanitize.Sanitize(text, reveal),
			})
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "sanitize as a viewer holding a contact pass")
	return cmd
}
