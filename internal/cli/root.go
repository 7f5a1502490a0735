// Package cli implements planctl, the operator command line for the plan catalog.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"plan-catalog/internal/domain/model"
	ucport "plan-catalog/internal/domain/ports/usecase"
	"plan-catalog/internal/infra/logging"
	"plan-catalog/internal/usecase"
)

// Catalog is the plan surface planctl drives.
type Catalog interface {
	ucport.PlanManager
	Seed(ctx context.Context, catalog []model.PlanParams) (*usecase.SeedResult, error)
}

// TokenMinter signs admin tokens.
type TokenMinter interface {
	Mint(subject string) (string, error)
}

// Env is what a command runs against. Close releases it.
type Env struct {
	Plans  Catalog
	Tokens TokenMinter
	Close  func() error
}

// Opener builds an Env from the config file at cfgPath.
type Opener func(ctx context.Context, cfgPath string) (*Env, error)

type options struct {
	cfgFile string
	asJSON  bool
	timeout time.Duration
	open    Opener
}

// NewRootCmd wires every subcommand onto a fresh root.
func NewRootCmd(open Opener) *cobra.Command {
	o := &options{open: open}
	root := &cobra.Command{
		Use:           "planctl",
		Short:         "Manage the subscription plan catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&o.cfgFile, "config", "c", "config.yaml", "config file path")
	root.PersistentFlags().BoolVar(&o.asJSON, "json", false, "print JSON instead of a table")
	root.PersistentFlags().DurationVar(&o.timeout, "timeout", 30*time.Second, "overall command deadline")

	root.AddCommand(
		newListCmd(o),
		newGetCmd(o),
		newCreateCmd(o),
		newUpdateCmd(o),
		newDeleteCmd(o),
		newSeedCmd(o),
		newTokenCmd(o),
	)
	return root
}

// run opens the environment, tags the context with a trace id and calls fn.
func (o *options) run(cmd *cobra.Command, fn func(ctx context.Context, env *Env) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithActor(ctx, "planctl")

	env, err := o.open(ctx, o.cfgFile)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(ctx, env)
}

func (o *options) printPlans(w io.Writer, plans []*model.Plan) error {
	if o.asJSON {
		return writeJSON(w, plans)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tDURATION\tDESCRIPTION")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d %s\t%s\n", p.ID, p.Name, p.Price.String(), p.Duration, p.DurationUnit, p.Description)
	}
	return tw.Flush()
}

func (o *options) printPlan(w io.Writer, p *model.Plan) error {
	if o.asJSON {
		return writeJSON(w, p)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", p.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "Description:\t%s\n", p.Description)
	fmt.Fprintf(tw, "Price:\t%s\n", p.Price.String())
	fmt.Fprintf(tw, "Duration:\t%d %s\n", p.Duration, p.DurationUnit)
	fmt.Fprintf(tw, "Created:\t%s\n", p.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "Updated:\t%s\n", p.UpdatedAt.Format(time.RFC3339))
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
