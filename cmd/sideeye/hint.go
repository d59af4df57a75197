package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olegrjumin/sideeye/internal/hint"
)

func newHintCmd(a *app) *cobra.Command {
	var (
		pagePath string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "hint EVIDENCE",
		Short: "Print how to find and reveal an element in the browser",
		Example: `  sideeye hint '<button id="delete" hidden onclick="del()">Delete</button>'
  sideeye hint --page saved.html '<input name="role" type="hidden" value="admin">'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evidence := args[0]
			if evidence == "-" {
				data, err := readAllStdin()
				if err != nil {
					return err
				}
				evidence = string(data)
			}

			res := hint.Build(evidence)
			if pagePath != "" {
				page, err := os.ReadFile(pagePath)
				if err != nil {
					return err
				}
				if res.BestSelector != "" {
					n, err := hint.Verify(string(page), res.BestSelector)
					if err != nil {
						return err
					}
					res.Matches = &n
				}
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			if res.BestSelector != "" {
				a.printf("Selector: %s\n", res.BestSelector)
			}
			if res.Matches != nil {
				a.printf("Matches in page: %d\n", *res.Matches)
			}
			a.printf("\n%s\n\nReveal snippet:\n%s\n", strings.Join(res.Hints, "\n"), res.RevealSnippet)
			return nil
		},
	}

	cmd.Flags().StringVar(&pagePath, "page", "", "HTML file to resolve the selector against")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the hint as JSON")
	return cmd
}
