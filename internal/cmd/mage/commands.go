package mage

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/louisbranch/magemaker/internal/services/sheet/app"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/character"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/ruleset"
	"github.com/louisbranch/magemaker/internal/services/sheet/domain/trait"
	"github.com/spf13/cobra"
)

func newSetCommand(c *cli) *cobra.Command {
	var override bool
	cmd := &cobra.Command{
		Use:   "set <id> <trait> <rating>",
		Short: "Set a trait rating in the current regime",
		Long: `Set a trait rating. Traits are kind:Name keys (attribute:Wits,
ability:Occult, sphere:Forces, background:Avatar) or a bare scalar
(arete, willpower, quintessence).

--override skips the point check and records no cost. Floors, maximums and
sphere caps still apply.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := changeRequest(args[1], args[2], override)
			if err != nil {
				return err
			}
			svc, err := c.service()
			if err != nil {
				return err
			}
			res, err := svc.Change(cmd.Context(), args[0], req)
			if err != nil {
				return c.fail("set", err)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&override, "override", false, "storyteller override: no charge")
	return cmd
}

func newQuoteCommand(c *cli) *cobra.Command {
	var override bool
	cmd := &cobra.Command{
		Use:   "quote <id> <trait> <rating>",
		Short: "Preview a change and its cost without applying it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := changeRequest(args[1], args[2], override)
			if err != nil {
				return err
			}
			svc, err := c.service()
			if err != nil {
				return err
			}
			d, err := svc.Quote(cmd.Context(), args[0], req)
			if err != nil {
				return c.fail("quote", err)
			}
			out := cmd.OutOrStdout()
			if !d.Accepted() {
				fmt.Fprintf(out, "Would be rejected: %s: %s\n", d.Rejection.Code, d.Rejection.Message)
				return nil
			}
			printDecision(out, d)
			return nil
		},
	}
	cmd.Flags().BoolVar(&override, "override", false, "quote as a storyteller override")
	return cmd
}

func newPriorityCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <id> <attribute|ability> <category> <primary|secondary|tertiary|unset>",
		Short: "Assign a creation priority to a category",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			axis := ruleset.Axis(strings.ToLower(strings.TrimSpace(args[1])))
			if axis != ruleset.AxisAttribute && axis != ruleset.AxisAbility {
				return fmt.Errorf("axis must be attribute or ability, got %q", args[1])
			}
			p, ok := ruleset.ParsePriority(args[3])
			if !ok {
				return fmt.Errorf("unknown priority %q", args[3])
			}
			svc, err := c.service()
			if err != nil {
				return err
			}
			res, err := svc.SetPriority(cmd.Context(), args[0], axis, args[2], p)
			if err != nil {
				return c.fail("priority", err)
			}
			tier := string(p)
			if p == ruleset.PriorityUnset {
				tier = "unset"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", args[2], axis, tier)
			printPoints(cmd.OutOrStdout(), res.Character.Sheet)
			return nil
		},
	}
}

func newAffinityCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "affinity <id> [sphere]",
		Short: "Select the affinity sphere, or list the options",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				st, err := svc.Status(cmd.Context(), args[0])
				if err != nil {
					return c.fail("affinity", err)
				}
				fmt.Fprintf(out, "Affinity options: %s\n", strings.Join(st.AffinityOptions, ", "))
				return nil
			}
			res, err := svc.SelectAffinity(cmd.Context(), args[0], args[1])
			if err != nil {
				return c.fail("affinity", err)
			}
			fmt.Fprintf(out, "Affinity sphere: %s\n", res.Character.Sheet.AffinitySphere())
			printAdjustments(out, res.Decision.Adjustments)
			return nil
		},
	}
}

func newAdvanceCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "advance <id>",
		Short: "Move to the next regime once nothing blocks it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			res, err := svc.Advance(cmd.Context(), args[0])
			if err != nil {
				if _, ok := app.Rejection(err); ok && len(res.Decision.Reasons) > 0 {
					printReasons(cmd.ErrOrStderr(), res.Decision.Reasons)
				}
				return c.fail("advance", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Regime: %s\n", res.Character.Sheet.Regime())
			printPoints(cmd.OutOrStdout(), res.Character.Sheet)
			return nil
		},
	}
}

func newExperienceCommand(c *cli) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "xp <id> <amount>",
		Short: "Award experience points",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("amount must be a number, got %q", args[1])
			}
			svc, err := c.service()
			if err != nil {
				return err
			}
			res, err := svc.AwardExperience(cmd.Context(), args[0], amount, note)
			if err != nil {
				return c.fail("xp", err)
			}
			printPoints(cmd.OutOrStdout(), res.Character.Sheet)
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "reason for the award")
	return cmd
}

// newQualityCommand builds "merit" or "flaw" with add and remove children.
func newQualityCommand(c *cli, kind string) *cobra.Command {
	parent := &cobra.Command{
		Use:   kind,
		Short: "Add or remove a " + kind,
	}
	for _, taken := range []bool{true, false} {
		var override bool
		verb := "add"
		if !taken {
			verb = "remove"
		}
		child := &cobra.Command{
			Use:   verb + " <id> <name>",
			Short: strings.ToUpper(verb[:1]) + verb[1:] + " a " + kind,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := c.service()
				if err != nil {
					return err
				}
				set := svc.SetMerit
				if kind == "flaw" {
					set = svc.SetFlaw
				}
				res, err := set(cmd.Context(), args[0], args[1], taken, override)
				if err != nil {
					return c.fail(kind+" "+verb, err)
				}
				held := res.Character.Sheet.Merits()
				if kind == "flaw" {
					held = res.Character.Sheet.Flaws()
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%ss: %s\n", strings.ToUpper(kind[:1])+kind[1:], formatRatings(held))
				printPoints(out, res.Character.Sheet)
				return nil
			},
		}
		child.Flags().BoolVar(&override, "override", false, "storyteller override")
		parent.AddCommand(child)
	}
	return parent
}

func newPoolCommand(c *cli) *cobra.Command {
	var willpower, paradox int
	cmd := &cobra.Command{
		Use:   "pool <id>",
		Short: "Set the current Willpower or Paradox pools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("willpower") && !flags.Changed("paradox") {
				return fmt.Errorf("set --willpower, --paradox or both")
			}
			svc, err := c.service()
			if err != nil {
				return err
			}
			var res app.Result
			if flags.Changed("willpower") {
				if res, err = svc.SetWillpowerCurrent(cmd.Context(), args[0], willpower); err != nil {
					return c.fail("pool", err)
				}
			}
			if flags.Changed("paradox") {
				if res, err = svc.SetParadox(cmd.Context(), args[0], paradox); err != nil {
					return c.fail("pool", err)
				}
			}
			sheet := res.Character.Sheet
			fmt.Fprintf(cmd.OutOrStdout(), "Willpower: %d/%d  Paradox: %d\n",
				sheet.WillpowerCurrent(), sheet.Rating(trait.Willpower), sheet.Paradox())
			return nil
		},
	}
	cmd.Flags().IntVar(&willpower, "willpower", 0, "current Willpower")
	cmd.Flags().IntVar(&paradox, "paradox", 0, "Paradox points")
	return cmd
}

func newStatusCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show the regime, point balances and what blocks advancing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service()
			if err != nil {
				return err
			}
			st, err := svc.Status(cmd.Context(), args[0])
			if err != nil {
				return c.fail("status", err)
			}
			printStatus(cmd.OutOrStdout(), svc.Rules(), st)
			return nil
		},
	}
}

func changeRequest(key, rating string, override bool) (character.ChangeRequest, error) {
	ref, err := trait.ParseKey(key)
	if err != nil {
		return character.ChangeRequest{}, err
	}
	n, err := strconv.Atoi(rating)
	if err != nil {
		return character.ChangeRequest{}, fmt.Errorf("rating must be a number, got %q", rating)
	}
	return character.ChangeRequest{Trait: ref, Rating: n, Override: override}, nil
}

func printResult(out io.Writer, res app.Result) {
	printDecision(out, res.Decision)
	printPoints(out, res.Character.Sheet)
}

func printDecision(out io.Writer, d character.Decision) {
	fmt.Fprintf(out, "%s: %d -> %d (cost %d)\n", d.Trait, d.From, d.To, d.Cost)
	printAdjustments(out, d.Adjustments)
}

func printAdjustments(out io.Writer, adjustments []character.Adjustment) {
	for _, a := range adjustments {
		fmt.Fprintf(out, "  %s %s: %d -> %d (%s)\n", a.Kind, a.Trait, a.From, a.To, a.Code())
	}
}

func printPoints(out io.Writer, sheet *character.Sheet) {
	if sheet == nil {
		return
	}
	switch sheet.Regime() {
	case character.RegimeFreebie:
		fmt.Fprintf(out, "Freebie points: %d\n", sheet.AvailableFreebiePoints())
	case character.RegimeExperience:
		fmt.Fprintf(out, "Experience: %d available (%d earned)\n", sheet.AvailableExperiencePoints(), sheet.ExperienceTotal())
	}
}

func printReasons(out io.Writer, reasons []character.Reason) {
	for _, r := range reasons {
		fmt.Fprintf(out, "  %s: %s\n", r.Code, r.Message)
	}
}

func printStatus(out io.Writer, rules *ruleset.Ruleset, st app.Status) {
	fmt.Fprintf(out, "Regime: %s\n", st.Regime)
	fmt.Fprintf(out, "Freebie points: %d\n", st.FreebiePoints)
	fmt.Fprintf(out, "Experience: %d\n", st.ExperiencePoints)
	if st.Regime == character.RegimeCreation {
		fmt.Fprintln(out, "Dots remaining:")
		fmt.Fprintf(out, "  Attributes: %s\n", formatOrdered(st.Remaining.Attributes, rules.Categories(ruleset.AxisAttribute)))
		fmt.Fprintf(out, "  Abilities: %s\n", formatOrdered(st.Remaining.Abilities, rules.Categories(ruleset.AxisAbility)))
		fmt.Fprintf(out, "  Backgrounds: %d\n", st.Remaining.Backgrounds)
		fmt.Fprintf(out, "  Spheres: %d\n", st.Remaining.Spheres)
	}
	if len(st.AffinityOptions) > 0 {
		fmt.Fprintf(out, "Affinity options: %s\n", strings.Join(st.AffinityOptions, ", "))
	}
	if st.Ready() {
		fmt.Fprintln(out, "Ready to advance.")
		return
	}
	fmt.Fprintln(out, "Blocked:")
	printReasons(out, st.Reasons)
}

func formatOrdered(values map[string]int, order []string) string {
	parts := make([]string, 0, len(order))
	for _, name := range order {
		parts = append(parts, fmt.Sprintf("%s %d", name, values[name]))
	}
	return strings.Join(parts, ", ")
}

func formatRatings(values map[string]int) string {
	if len(values) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(values))
	for _, name := range slices.Sorted(maps.Keys(values)) {
		parts = append(parts, fmt.Sprintf("%s %d", name, values[name]))
	}
	return strings.Join(parts, ", ")
}
