package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	pg "clearance/internal/adapters/postgres"
	"clearance/internal/domain"
	"clearance/internal/ports"
	"clearance/internal/rawtree"
	"clearance/internal/services/compliance"
	"clearance/internal/services/normalizer"
	"clearance/internal/services/sampler"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clearancectl",
		Short:         "Operate on insurance submission records offline",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	var mappingFile string
	root.PersistentFlags().StringVar(&mappingFile, "mapping", "", "YAML file overriding field candidate paths")

	loadNormalizer := func() (*normalizer.Normalizer, error) {
		m := normalizer.DefaultMapping()
		if mappingFile != "" {
			var err error
			if m, err = normalizer.LoadMapping(mappingFile); err != nil {
				return nil, err
			}
		}
		return normalizer.New(m, nil), nil
	}

	root.AddCommand(newNormalizeCmd(loadNormalizer))
	root.AddCommand(newEvaluateCmd(loadNormalizer))
	root.AddCommand(newSampleCmd())
	root.AddCommand(newImportCmd(loadNormalizer))
	return root
}

func newNormalizeCmd(load func() (*normalizer.Normalizer, error)) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "normalize <record.json>",
		Short: "Print the canonical submission for a raw record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := load()
			if err != nil {
				return err
			}
			raw, err := readTree(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), n.Normalize(raw, id))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Override the record's submission id")
	return cmd
}

func newEvaluateCmd(load func() (*normalizer.Normalizer, error)) *cobra.Command {
	var (
		restricted  []string
		ruleEnabled bool
		opts        = compliance.DefaultOptions()
	)
	cmd := &cobra.Command{
		Use:   "evaluate <record.json>",
		Short: "Print the compliance report for a raw record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := load()
			if err != nil {
				return err
			}
			raw, err := readTree(args[0])
			if err != nil {
				return err
			}
			store := compliance.NewRuleStore(domain.RuleConfig{RestrictedCodes: restricted, RuleEnabled: ruleEnabled})
			var fin *domain.FinancialSignal
			if sig, ok := n.FinancialSignal(raw); ok {
				fin = &sig
			}
			report := compliance.NewEngine(opts, nil).Evaluate(n.Normalize(raw, ""), store.Snapshot(), fin)
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&restricted, "restricted", compliance.DefaultRestrictedCodes, "Restricted industry codes")
	f.BoolVar(&ruleEnabled, "rule-enabled", true, "Enforce the industry restriction rule")
	f.StringSliceVar(&opts.RequiredDocuments, "require", opts.RequiredDocuments, "Required document categories")
	f.Float64Var(&opts.AttentionScore, "attention-score", opts.AttentionScore, "Financial score that needs review")
	f.Float64Var(&opts.FailScore, "fail-score", opts.FailScore, "Financial score that fails the check")
	return cmd
}

func newSampleCmd() *cobra.Command {
	var (
		count int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print generated raw sample records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return fmt.Errorf("-n must not be negative")
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			gen := sampler.New(rand.New(rand.NewSource(seed)), nil)
			bodies := []rawtree.Value{}
			for _, r := range gen.Records(count) {
				bodies = append(bodies, r.Body)
			}
			return printJSON(cmd.OutOrStdout(), bodies)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "Number of records")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 uses the clock)")
	return cmd
}

func newImportCmd(load func() (*normalizer.Normalizer, error)) *cobra.Command {
	var (
		databaseURL string
		migrate     bool
	)
	cmd := &cobra.Command{
		Use:   "import <records.json>",
		Short: "Load raw records into the document store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}
			if databaseURL == "" {
				return fmt.Errorf("--database-url or DATABASE_URL is required")
			}
			n, err := load()
			if err != nil {
				return err
			}
			raw, err := readTree(args[0])
			if err != nil {
				return err
			}
			records := keyedRecords(n, raw)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			db, err := pg.Connect(ctx, databaseURL)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer db.Close()
			if migrate {
				if err := pg.Migrate(ctx, db); err != nil {
					return err
				}
			}
			written, err := db.Put(ctx, records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d records\n", written, len(records))
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres URL (defaults to $DATABASE_URL)")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply schema migrations first")
	return cmd
}

// keyedRecords accepts one record or an array of records and keys each by
// its normalized id, falling back to its position.
func keyedRecords(n *normalizer.Normalizer, raw rawtree.Value) []ports.Record {
	items := []rawtree.Value{raw}
	if raw.Kind() == rawtree.KindArray {
		items = raw.Items()
	}
	out := make([]ports.Record, 0, len(items))
	for i, item := range items {
		if item.Kind() != rawtree.KindObject {
			continue
		}
		key := n.Normalize(item, "").ID
		if key == "Unknown" {
			key = fmt.Sprintf("import-%d", i+1)
		}
		out = append(out, ports.Record{Key: key, Body: item})
	}
	return out
}

func readTree(path string) (rawtree.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rawtree.Value{}, err
	}
	return rawtree.Parse(data)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
