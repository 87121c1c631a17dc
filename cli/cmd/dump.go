package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/wkalt/tbin/binproto"
	"github.com/wkalt/tbin/cli/util"
	"github.com/wkalt/tbin/dynamic"
	"github.com/wkalt/tbin/util/bufext"
	"github.com/wkalt/tbin/util/log"
)

var (
	dumpFromStore bool
	dumpStruct    bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump [file | object id]",
	Short: "Decode a payload and print it as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			cmd.Usage()
			return
		}
		ctx := log.AddTags(context.Background(), "payload", args[0])
		load, err := newLoader(dumpFromStore)
		checkErr(err)
		data, err := load(ctx, args[0])
		checkErr(err)

		r := binproto.NewReader(bufext.NewSliceSource(data), readerOptions()...)
		var out []byte
		if dumpStruct {
			s, err := dynamic.ReadStruct(r)
			checkErr(err)
			out, err = json.MarshalIndent(dynamic.Plain(s), "", "  ")
			checkErr(err)
		} else {
			msg := &dynamic.Message{}
			checkErr(msg.Decode(r))
			if !util.StdoutRedirected() {
				color.New(color.FgCyan).Fprintf(os.Stdout, "%s %s seqid=%d\n", msg.Type, msg.Name, msg.SeqID)
			}
			out, err = json.MarshalIndent(msg, "", "  ")
			checkErr(err)
		}
		if n := r.Remaining(); n > 0 {
			log.Warnw(ctx, "trailing bytes after payload", "bytes", n)
		}
		fmt.Fprintln(os.Stdout, string(out))
	},
}

type loader func(ctx context.Context, name string) ([]byte, error)

// newLoader returns a function reading payloads from local files, or from the
// configured store if fromStore is set.
func newLoader(fromStore bool) (loader, error) {
	if !fromStore {
		return func(_ context.Context, name string) ([]byte, error) {
			data, err := os.ReadFile(name)
			if err != nil {
				return nil, fmt.Errorf("failed to read payload: %w", err)
			}
			return data, nil
		}, nil
	}
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, name string) ([]byte, error) {
		log.Debugw(ctx, "reading payload from store", "store", store)
		data, err := store.Get(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", name, err)
		}
		return data, nil
	}, nil
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.PersistentFlags().BoolVarP(&dumpFromStore, "object", "o", false, "Read the payload from the store")
	dumpCmd.PersistentFlags().BoolVar(&dumpStruct, "struct", false, "Payload is a bare struct, not a message")
}
