package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"plan-catalog/internal/domain/model"
	"plan-catalog/internal/usecase"
)

func newListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List plans in creation order",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, func(ctx context.Context, env *Env) error {
				plans, err := env.Plans.List(ctx)
				if err != nil {
					return fmt.Errorf("list plans: %w", err)
				}
				return o.printPlans(cmd.OutOrStdout(), plans)
			})
		},
	}
}

func newGetCmd(o *options) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show one plan by id, or by exact name with --name",
		Example: `  planctl get 1b4e28ba-2fa1-11d2-883f-0016d3cca427
  planctl get --name "Pro Annual"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (name != "") {
				return errors.New("give exactly one of an id argument or --name")
			}
			return o.run(cmd, func(ctx context.Context, env *Env) error {
				var (
					p   *model.Plan
					err error
				)
				if name != "" {
					p, err = env.Plans.GetByName(ctx, name)
				} else {
					p, err = env.Plans.Get(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return o.printPlan(cmd.OutOrStdout(), p)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "look up by exact, case-sensitive name")
	return cmd
}

// planFlags are the editable fields shared by create and update.
type planFlags struct {
	name        string
	description string
	price       string
	duration    int
	unit        string
}

func (f *planFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "plan name, unique across the catalog")
	cmd.Flags().StringVar(&f.description, "description", "", "plan description")
	cmd.Flags().StringVar(&f.price, "price", "", "price as a decimal, e.g. 29.99")
	cmd.Flags().IntVar(&f.duration, "duration", 0, "billing period length")
	cmd.Flags().StringVar(&f.unit, "unit", "", "billing period unit: DAY, WEEK, MONTH or YEAR")
}

func (f *planFlags) anyChanged(cmd *cobra.Command) bool {
	for _, n := range []string{"name", "description", "price", "duration", "unit"} {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}

// apply overlays the flags the user set onto base.
func (f *planFlags) apply(cmd *cobra.Command, base model.PlanParams) (model.PlanParams, error) {
	changed := cmd.Flags().Changed
	if changed("name") {
		base.Name = f.name
	}
	if changed("description") {
		base.Description = f.description
	}
	if changed("price") {
		price, err := decimal.NewFromString(f.price)
		if err != nil {
			return base, fmt.Errorf("invalid --price %q: %w", f.price, err)
		}
		base.Price = price
	}
	if changed("duration") {
		base.Duration = f.duration
	}
	if changed("unit") {
		base.DurationUnit = f.unit
	}
	return base, nil
}

func newCreateCmd(o *options) *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a plan",
		Example: `  planctl create --name Pro --description "Pro tier" --price 29.99 --duration 1 --unit MONTH`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := f.apply(cmd, model.PlanParams{})
			if err != nil {
				return err
			}
			return o.run(cmd, func(ctx context.Context, env *Env) error {
				p, err := env.Plans.Create(ctx, params)
				if err != nil {
					return err
				}
				return o.printPlan(cmd.OutOrStdout(), p)
			})
		},
	}
	f.bind(cmd)
	for _, req := range []string{"name", "price", "duration", "unit"} {
		_ = cmd.MarkFlagRequired(req)
	}
	return cmd
}

func newUpdateCmd(o *options) *cobra.Command {
	var f planFlags
	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Change a plan; omitted flags keep their current value",
		Example: `  planctl update 1b4e28ba-2fa1-11d2-883f-0016d3cca427 --price 39.99`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !f.anyChanged(cmd) {
				return errors.New("nothing to update: set at least one field flag")
			}
			return o.run(cmd, func(ctx context.Context, env *Env) error {
				cur, err := env.Plans.Get(ctx, args[0])
				if err != nil {
					return err
				}
				params, err := f.apply(cmd, cur.Params())
				if err != nil {
					return err
				}
				p, err := env.Plans.Update(ctx, cur.ID, params)
				if err != nil {
					return err
				}
				return o.printPlan(cmd.OutOrStdout(), p)
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a plan",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, func(ctx context.Context, env *Env) error {
				if err := env.Plans.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newSeedCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Install the default catalog, skipping names that already exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, func(ctx context.Context, env *Env) error {
				res, err := env.Plans.Seed(ctx, usecase.DefaultCatalog())
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				if o.asJSON {
					return writeJSON(cmd.OutOrStdout(), res)
				}
				out := cmd.OutOrStdout()
				for _, p := range res.Created {
					fmt.Fprintf(out, "created %s (%s)\n", p.Name, p.ID)
				}
				for _, n := range res.Skipped {
					fmt.Fprintf(out, "skipped %s: already exists\n", n)
				}
				return nil
			})
		},
	}
}

func newTokenCmd(o *options) *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, func(_ context.Context, env *Env) error {
				tok, err := env.Tokens.Mint(subject)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tok)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "planctl", "token subject")
	return cmd
}
