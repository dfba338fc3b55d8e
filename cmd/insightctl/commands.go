package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/money"
)

func newAggregateCmd(opts *options) *cobra.Command {
	var dimension string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Summarize sales along one dimension",
		Long: `Aggregate filters the invoices, groups their final amounts along a
dimension and prints each group with its share of the total.

Dimensions: month, year, payment, product, day.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, loc, err := opts.newService(cmd)
			if err != nil {
				return err
			}
			criteria, err := opts.criteria(loc)
			if err != nil {
				return err
			}
			summary, err := svc.Insights(cmd.Context(), dimension, criteria)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			return writeSummary(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringVarP(&dimension, "dimension", "d", "month", "Grouping dimension")
	addFilterFlags(cmd, opts)
	return cmd
}

func newFilterCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print the invoices matching every given filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, loc, err := opts.newService(cmd)
			if err != nil {
				return err
			}
			criteria, err := opts.criteria(loc)
			if err != nil {
				return err
			}
			invoices, err := svc.Invoices(cmd.Context(), criteria)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), invoices)
			}
			return writeInvoices(cmd.OutOrStdout(), invoices)
		},
	}
	addFilterFlags(cmd, opts)
	return cmd
}

func newDueCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "due",
		Short: "Print invoices that are not fully paid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := opts.newService(cmd)
			if err != nil {
				return err
			}
			invoices, err := svc.DueInvoices(cmd.Context())
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), invoices)
			}
			return writeInvoices(cmd.OutOrStdout(), invoices)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSummary(w io.Writer, summary domain.Summary) error {
	fmt.Fprintln(w, summary.Title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tAMOUNT\tSHARE %%\n", strings.ToUpper(summary.Dimension.Column()))
	for _, row := range summary.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Label, row.Amount, row.Percentage)
	}
	fmt.Fprintf(tw, "%s\t%s\t%s\n", summary.Total.Label, summary.Total.Amount, summary.Total.Percentage)
	return tw.Flush()
}

func writeInvoices(w io.Writer, invoices []domain.Invoice) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tDATE\tCUSTOMER\tPAYMENT\tAMOUNT\tSTATUS")
	for _, inv := range invoices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			inv.InvoiceNumber,
			inv.Date,
			inv.Customer.Name,
			orDash(inv.Totals.PaymentMode),
			money.Format(inv.Totals.FinalAmount),
			inv.Status(),
		)
	}
	fmt.Fprintf(tw, "\n%d invoice(s)\n", len(invoices))
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
