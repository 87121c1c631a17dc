package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wkalt/tbin/cli/util"
	tbinutil "github.com/wkalt/tbin/util"
	"github.com/wkalt/tbin/util/log"
	"golang.org/x/sync/errgroup"
)

var (
	validateFromStore bool
	validateStruct    bool
	validateWorkers   int
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

type validation struct {
	name    string
	summary util.Summary
	err     error
}

var validateCmd = &cobra.Command{
	Use:   "validate [pattern]...",
	Short: "Check that payloads are well formed",
	Long: `Check that payloads are well formed without decoding them. Each
argument is a doublestar pattern matched against local files, or against
object ids when --object is set. Exits nonzero if any payload fails.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Usage()
			return
		}
		if validateWorkers < 1 {
			bailf("--workers must be at least 1")
		}
		ctx := context.Background()
		names, err := expandArgs(ctx, validateFromStore, args)
		checkErr(err)
		if len(names) == 0 {
			bailf("no payloads match %v", args)
		}
		load, err := newLoader(validateFromStore)
		checkErr(err)
		results := validateAll(ctx, load, names)
		for _, res := range results {
			if res.err != nil {
				failColor.Fprintf(os.Stdout, "FAIL")
				fmt.Fprintf(os.Stdout, " %s: %v\n", res.name, res.err)
				continue
			}
			okColor.Fprintf(os.Stdout, "ok  ")
			fmt.Fprintf(os.Stdout, " %s %s %08x", res.name, res.summary.HumanSize(), res.summary.Fingerprint)
			if !validateStruct {
				fmt.Fprintf(os.Stdout, " %s %s seqid=%d", res.summary.Type, res.summary.Name, res.summary.SeqID)
			}
			fmt.Fprintln(os.Stdout)
		}
		outcomes := tbinutil.GroupBy(results, func(v validation) string {
			return tbinutil.When(v.err == nil, "ok", "failed")
		})
		failed := len(outcomes["failed"])
		log.Infow(ctx, "validation complete", "ok", len(outcomes["ok"]), "failed", failed)
		if failed > 0 {
			os.Exit(1)
		}
	},
}

// expandArgs expands patterns against local files, or against object ids in
// the store if fromStore is set.
func expandArgs(ctx context.Context, fromStore bool, patterns []string) ([]string, error) {
	if !fromStore {
		return util.ExpandFiles(patterns)
	}
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	ids, err := store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return util.MatchIDs(ids, patterns)
}

// validateAll validates each payload on a bounded pool of workers. Each worker
// has its own buffer and reader. Failures are recorded per payload rather than
// cancelling the group.
func validateAll(ctx context.Context, load loader, names []string) []validation {
	results := make([]validation, len(names))
	g := errgroup.Group{}
	g.SetLimit(validateWorkers)
	for i, name := range names {
		g.Go(func() error {
			ctx := log.AddTags(ctx, "payload", name)
			results[i] = validateOne(ctx, load, name)
			if results[i].err != nil {
				log.Debugw(ctx, "validation failed", "error", results[i].err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func validateOne(ctx context.Context, load loader, name string) validation {
	data, err := load(ctx, name)
	if err != nil {
		return validation{name: name, err: err}
	}
	var summary util.Summary
	if validateStruct {
		summary, err = util.ValidateStruct(data, readerOptions()...)
	} else {
		summary, err = util.ValidateMessage(data, readerOptions()...)
	}
	return validation{name: name, summary: summary, err: err}
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.PersistentFlags().BoolVarP(&validateFromStore, "object", "o", false, "Match patterns against object ids in the store")
	validateCmd.PersistentFlags().BoolVar(&validateStruct, "struct", false, "Payloads are bare structs, not messages")
	validateCmd.PersistentFlags().IntVarP(&validateWorkers, "workers", "w", runtime.NumCPU(), "Parallel workers")
}
