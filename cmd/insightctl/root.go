package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"invoicedesk/backend/internal/domain"
	"invoicedesk/backend/internal/httpapi"
	"invoicedesk/backend/internal/logger"
	"invoicedesk/backend/internal/service"
	"invoicedesk/backend/internal/store"
	"invoicedesk/backend/internal/store/memory"
	"invoicedesk/backend/internal/store/remote"
)

var version = "0.1.0"

// options holds the flags shared by every subcommand.
type options struct {
	file     string
	remote   string
	timeout  time.Duration
	timezone string
	asJSON   bool
	logLevel string

	start       string
	end         string
	customer    string
	product     string
	min         string
	max         string
	paymentMode string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "insightctl",
		Short: "Query and summarize invoice collections from the command line",
		Long: `insightctl runs the invoice analytics engine against a JSON export or a
live billing API and prints filtered invoices, due bills or sales summaries.

Invoices are read either from a file (--file) holding an array of invoices or
an object with "invoices", "products" and "customers", or from the billing
API root given with --remote.`,
		Example: `  # Monthly sales from an export
  insightctl aggregate --dimension month --file invoices.json

  # Card payments above 1000 in January, as JSON
  insightctl filter --remote http://billing:4000 --payment-mode card --min 1000 \
      --start 2024-01-01 --end 2024-01-31 --json`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", "", "Read invoices from a JSON file")
	flags.StringVar(&opts.remote, "remote", "", "Read invoices from the billing API at this base URL")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Timeout for --remote requests")
	flags.StringVar(&opts.timezone, "timezone", "UTC", "IANA zone used to read date-only bounds")
	flags.BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")
	root.MarkFlagsMutuallyExclusive("file", "remote")
	root.MarkFlagsOneRequired("file", "remote")

	root.AddCommand(
		newAggregateCmd(opts),
		newFilterCmd(opts),
		newDueCmd(opts),
	)
	return root
}

func addFilterFlags(cmd *cobra.Command, opts *options) {
	flags := cmd.Flags()
	flags.StringVar(&opts.start, "start", "", "First day to include (YYYY-MM-DD or RFC3339)")
	flags.StringVar(&opts.end, "end", "", "Last day to include (YYYY-MM-DD or RFC3339)")
	flags.StringVar(&opts.customer, "customer", "", "Customer name, phone or email substring")
	flags.StringVar(&opts.product, "product", "", "Product name substring")
	flags.StringVar(&opts.min, "min", "", "Minimum final amount")
	flags.StringVar(&opts.max, "max", "", "Maximum final amount")
	flags.StringVar(&opts.paymentMode, "payment-mode", "", "Payment mode, case-insensitive")
}

// criteria reuses the HTTP query rules so both surfaces accept the same
// bounds.
func (o *options) criteria(loc *time.Location) (domain.FilterCriteria, error) {
	values := url.Values{}
	set := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			values.Set(key, value)
		}
	}
	set("start", o.start)
	set("end", o.end)
	set("customer", o.customer)
	set("product", o.product)
	set("min", o.min)
	set("max", o.max)
	set("payment_mode", o.paymentMode)
	return httpapi.ParseCriteria(values, loc)
}

func (o *options) location() (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(o.timezone))
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", o.timezone, err)
	}
	return loc, nil
}

func (o *options) source() (store.InvoiceSource, error) {
	if o.remote != "" {
		return remote.New(o.remote, o.timeout), nil
	}
	data, err := os.ReadFile(o.file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", o.file, err)
	}
	mem, err := memory.Load(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", o.file, err)
	}
	return mem, nil
}

// newService builds the engine over the selected source.
func (o *options) newService(cmd *cobra.Command) (*service.Service, *time.Location, error) {
	loc, err := o.location()
	if err != nil {
		return nil, nil, err
	}
	source, err := o.source()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Level: o.logLevel, Format: "console", Output: cmd.ErrOrStderr()})
	log.Debug("invoice source selected", zap.String("file", o.file), zap.String("remote", o.remote))

	return service.New(source, nil, service.Options{Location: loc, Logger: log}), loc, nil
}
