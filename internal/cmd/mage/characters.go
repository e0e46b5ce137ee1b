package mage

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/render"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// profileFlags binds the profile fields to a flag set. apply copies only the
// flags that were set, so the same binding serves create and edit.
type profileFlags struct {
	profile character.Profile
}

func bindProfileFlags(fs *pflag.FlagSet) *profileFlags {
	pf := &profileFlags{}
	p := &pf.profile
	fs.StringVar(&p.Name, "name", "", "character name")
	fs.StringVar(&p.Player, "player", "", "player name")
	fs.StringVar(&p.Chronicle, "chronicle", "", "chronicle")
	fs.StringVar(&p.Concept, "concept", "", "concept")
	fs.StringVar(&p.Faction, "faction", "", "faction (Traditions, Technocratic Union, Disparates)")
	fs.StringVar(&p.Group, "group", "", "tradition, convention or craft")
	fs.StringVar(&p.Essence, "essence", "", "avatar essence")
	fs.StringVar(&p.Nature, "nature", "", "nature archetype")
	fs.StringVar(&p.Demeanor, "demeanor", "", "demeanor archetype")
	fs.StringVar(&p.Paradigm, "paradigm", "", "paradigm")
	fs.StringVar(&p.Practice, "practice", "", "practice")
	fs.StringSliceVar(&p.Instruments, "instrument", nil, "instrument (repeatable)")
	fs.StringVar(&p.AvatarDescription, "avatar", "", "avatar description")
	fs.StringVar(&p.Notes, "notes", "", "free-form notes")
	return pf
}

func (pf *profileFlags) apply(fs *pflag.FlagSet, dst *character.Profile) {
	src := pf.profile
	set := map[string]func(){
		"name":       func() { dst.Name = src.Name },
		"player":     func() { dst.Player = src.Player },
		"chronicle":  func() { dst.Chronicle = src.Chronicle },
		"concept":    func() { dst.Concept = src.Concept },
		"faction":    func() { dst.Faction = src.Faction },
		"group":      func() { dst.Group = src.Group },
		"essence":    func() { dst.Essence = src.Essence },
		"nature":     func() { dst.Nature = src.Nature },
		"demeanor":   func() { dst.Demeanor = src.Demeanor },
		"paradigm":   func() { dst.Paradigm = src.Paradigm },
		"practice":   func() { dst.Practice = src.Practice },
		"instrument": func() { dst.Instruments = src.Instruments },
		"avatar":     func() { dst.AvatarDescription = src.AvatarDescription },
		"notes":      func() { dst.Notes = src.Notes },
	}
	fs.Visit(func(f *pflag.Flag) {
		if fn, ok := set[f.Name]; ok {
			fn()
		}
	})
}

func newCreateCommand(c *cli) *cobra.Command {
	var pf *profileFlags
	cmd := &cobra.Command{
		Use:     "new",
		Aliases: []string{"create"},
		Short:   "Create a character in the creation regime",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			var profile character.Profile
			pf.apply(cmd.Flags(), &profile)
			res, err := svc.Create(cmd.Context(), profile)
			if err != nil {
				return c.fail("create", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created character: %s\n", res.Character.ID)
			return nil
		},
	}
	pf = bindProfileFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProfileCommand(c *cli) *cobra.Command {
	var pf *profileFlags
	cmd := &cobra.Command{
		Use:   "profile <id>",
		Short: "Edit profile fields; only the flags given change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			res, err := svc.EditProfile(cmd.Context(), args[0], func(p *character.Profile) {
				pf.apply(cmd.Flags(), p)
			})
			if err != nil {
				return c.fail("profile", err)
			}
			p := res.Character.Sheet.Profile()
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s (%s)\n", res.Character.ID, p.Name, joinNonEmpty(" / ", p.Faction, p.Group))
			return nil
		},
	}
	pf = bindProfileFlags(cmd.Flags())
	return cmd
}

func newListCommand(c *cli) *cobra.Command {
	var in app.ListInput
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List characters, newest first",
		Long: `List characters, newest first.

Filters use AIP-160 syntax over name, regime, faction, group, arete,
experience_total, create_time and update_time.

Example:
  mage list --filter 'regime = "freebie"'
  mage list --filter 'arete >= 3 AND faction = "Traditions"' --page-size 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			res, err := svc.List(cmd.Context(), in)
			if err != nil {
				return c.fail("list", err)
			}
			out := cmd.OutOrStdout()
			if len(res.Characters) == 0 {
				fmt.Fprintln(out, "No characters found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tREGIME\tFACTION\tGROUP\tARETE\tXP")
			for _, s := range res.Characters {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
					s.ID, s.Name, s.Regime, dash(s.Faction), dash(s.Group), s.Arete, s.ExperienceTotal)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if res.NextPageToken != "" {
				fmt.Fprintf(out, "Next page: --page-token %s\n", res.NextPageToken)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Filter, "filter", "", "AIP-160 filter expression")
	f.IntVar(&in.PageSize, "page-size", 0, "maximum characters per page")
	f.StringVar(&in.PageToken, "page-token", "", "token from a previous page")
	return cmd
}

func newShowCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a character sheet as text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			doc, err := svc.Export(cmd.Context(), args[0], render.FormatText, c.cfg.Locale)
			if err != nil {
				return c.fail("show", err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), doc)
			return err
		},
	}
}

func newExportCommand(c *cli) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a character as markdown, text or json",
		Long: `Export a character. Markdown exports embed the snapshot and can be read
back with mage import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := render.ParseFormat(format)
			if !ok {
				return fmt.Errorf("unknown format %q (valid: markdown, text, json)", format)
			}
			svc, err := c.service()
			if err != nil {
				return err
			}
			doc, err := svc.Export(cmd.Context(), args[0], f, c.cfg.Locale)
			if err != nil {
				return c.fail("export", err)
			}
			if output == "" || output == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), doc)
				return err
			}
			if err := os.WriteFile(output, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", args[0], output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(render.FormatMarkdown), "markdown, text or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func newImportCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a markdown or json export as a new character",
		Long:  `Import a markdown or json export as a new character. Use - to read stdin.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}
			svc, err := c.service()
			if err != nil {
				return err
			}
			res, err := svc.Import(cmd.Context(), string(data))
			if err != nil {
				return c.fail("import", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported character: %s\n", res.Character.ID)
			return nil
		},
	}
}

func newDeleteCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a character and its journal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return c.fail("delete", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted character: %s\n", args[0])
			return nil
		},
	}
}

func newJournalCommand(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal <id>",
		Short: "Show the command journal of a character, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			entries, err := svc.Journal(cmd.Context(), args[0], limit)
			if err != nil {
				return c.fail("journal", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tTIME\tOPERATION\tOUTCOME\tCODE\tCOST\tDETAIL")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
					e.Seq, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Operation, e.Outcome, dash(e.Code), e.Cost, dash(e.Detail))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
