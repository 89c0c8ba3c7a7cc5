package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"airbnb-reconciler/models"
	"airbnb-reconciler/services"
)

func newPropertiesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "properties",
		Short: "List catalog properties with their Airbnb link status.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			props, err := store.ListProperties(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetStyle(table.StyleRounded)
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Title", "Status", "Airbnb ID", "Synced"})
			for _, p := range props {
				synced := ""
				if p.Synced {
					synced = "yes"
				}
				t.AppendRow(table.Row{p.ID, p.Title, p.Status, p.ExternalID(), synced})
			}
			t.Render()
			return nil
		},
	}
}

func newLinkCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "link <property-id> <airbnb-id>",
		Short: "Link a catalog property to an Airbnb listing.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.apply(cmd, args[0], yes, func(r *services.Reconciler, p *models.InternalProperty) (models.ReconciliationInstruction, error) {
				return r.Link(p, args[1])
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "apply without asking for confirmation")
	return cmd
}

func newUnlinkCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "unlink <property-id>",
		Short: "Remove a catalog property's Airbnb link.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.apply(cmd, args[0], yes, func(r *services.Reconciler, p *models.InternalProperty) (models.ReconciliationInstruction, error) {
				return r.Unlink(p)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "apply without asking for confirmation")
	return cmd
}

type buildFunc func(r *services.Reconciler, p *models.InternalProperty) (models.ReconciliationInstruction, error)

// apply builds one instruction, shows it and writes it once confirmed.
func (a *app) apply(cmd *cobra.Command, rawID string, yes bool, build buildFunc) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid property id %q", rawID)
	}

	ctx := cmd.Context()
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	prop, err := store.GetProperty(ctx, id)
	if err != nil {
		return err
	}
	instr, err := build(services.NewReconciler(a.logger, a.cfg.TitlePrefixLen), prop)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Property %d %q\n", prop.ID, prop.Title)
	if instr.Note != "" {
		fmt.Fprintf(out, "  note: %s\n", instr.Note)
	}
	fmt.Fprintf(out, "  %s\n", services.Statement(instr))

	if !yes {
		ok, err := confirm(cmd, "Apply this change?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted, nothing was written.")
			return nil
		}
	}

	updated, err := store.ApplyInstruction(context.WithoutCancel(ctx), instr)
	if err != nil {
		return err
	}
	a.logger.Info("[catalog] Applied %s to property %d", instr.Action, updated.ID)
	fmt.Fprintf(out, "Done. Property %d airbnb_id=%q synced=%t\n", updated.ID, updated.ExternalID(), updated.Synced)
	return nil
}
