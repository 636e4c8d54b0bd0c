package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kintreehq/kintree/pkg/date"
	"github.com/kintreehq/kintree/pkg/photo"
	"github.com/kintreehq/kintree/pkg/tree"
)

// newPeopleCmd lists everyone in the family tree.
func newPeopleCmd(dataDir *string) *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "people",
		Short: "List everyone in the family tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			ed, _, err := openEditor(ctx, *dataDir, logger)
			if err != nil {
				return err
			}
			g := ed.Graph()
			if g.Count() == 0 {
				printInfo("the family tree is empty")
				printNextStep("add someone", "kintree tui")
				return nil
			}

			fmt.Println(StyleTitle.Render(fmt.Sprintf("Family tree (%d people)", g.Count())))
			printNewline()
			for _, p := range g.People() {
				printPerson(g, p, long)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "show parents, siblings and photo details")

	return cmd
}

// printPerson prints one roster line, with relationship details when long
// output is requested.
func printPerson(g *tree.Graph, p *tree.Person, long bool) {
	line := StyleValue.Render(p.DisplayName())
	if span := lifespan(p.Birth, p.Death); span != "" {
		line += " " + StyleDim.Render(span)
	}
	fmt.Println(line)

	if !long {
		return
	}
	printDetail("id       %s", p.ID)
	if len(p.ParentIDs) > 0 {
		printDetail("parents  %s", joinNames(g, p.ParentIDs))
	}
	if len(p.SiblingIDs) > 0 {
		printDetail("siblings %s", joinNames(g, p.SiblingIDs))
	}
	if p.Photo != "" {
		printDetail("photo    %s", photo.Describe(p.Photo))
	}
	if p.Notes != "" {
		printDetail("notes    %s", p.Notes)
	}
}

// lifespan formats a "(1948 - 2020)" style range, or "" when no dates are set.
func lifespan(birth, death date.Date) string {
	b, d := birth.String(), death.String()
	switch {
	case b == "" && d == "":
		return ""
	case d == "":
		return fmt.Sprintf("(b. %s)", b)
	case b == "":
		return fmt.Sprintf("(d. %s)", d)
	default:
		return fmt.Sprintf("(%s - %s)", b, d)
	}
}

// joinNames resolves IDs to display names, falling back to the raw ID for
// anyone no longer in the graph.
func joinNames(g *tree.Graph, ids []string) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if p, ok := g.Person(id); ok {
			names = append(names, p.DisplayName())
		} else {
			names = append(names, id)
		}
	}
	return strings.Join(names, ", ")
}
