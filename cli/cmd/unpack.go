package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wkalt/tbin/archive"
	"github.com/wkalt/tbin/cli/util"
	"github.com/wkalt/tbin/storage"
	"github.com/wkalt/tbin/util/log"
)

var unpackPut bool

var unpackCmd = &cobra.Command{
	Use:   "unpack [archive.mcap]",
	Short: "List or store the payloads in an MCAP archive",
	Long: `List the payloads in an MCAP archive, validating each one. With
--put, each payload is also stored under a new object id.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			cmd.Usage()
			return
		}
		ctx := log.AddTags(context.Background(), "archive", args[0])
		var store storage.Provider
		if unpackPut {
			var err error
			store, err = openStore()
			checkErr(err)
		}
		f, err := os.Open(args[0])
		checkErr(err)
		defer f.Close()

		failed := 0
		err = archive.Read(f, func(rec archive.Record) error {
			ctx := log.AddTags(ctx, "topic", rec.Topic, "sequence", rec.Sequence)
			var summary util.Summary
			var err error
			if rec.Bare {
				summary, err = util.ValidateStruct(rec.Data, readerOptions()...)
			} else {
				summary, err = util.ValidateMessage(rec.Data, readerOptions()...)
			}
			stamp := rec.LogTime.UTC().Format(time.RFC3339Nano)
			if err != nil {
				failed++
				failColor.Fprintf(os.Stdout, "FAIL")
				fmt.Fprintf(os.Stdout, " %s %s#%d: %v\n", stamp, rec.Topic, rec.Sequence, err)
				return nil
			}
			okColor.Fprintf(os.Stdout, "ok  ")
			fmt.Fprintf(os.Stdout, " %s %s#%d %s %08x", stamp, rec.Topic, rec.Sequence, summary.HumanSize(), summary.Fingerprint)
			if store != nil {
				id := uuid.New().String()
				if err := store.Put(ctx, id, rec.Data); err != nil {
					return err
				}
				log.Debugw(ctx, "stored payload", "id", id)
				fmt.Fprintf(os.Stdout, " %s", id)
			}
			fmt.Fprintln(os.Stdout)
			return nil
		})
		checkErr(err)
		if failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(unpackCmd)
	unpackCmd.PersistentFlags().BoolVar(&unpackPut, "put", false, "Store each valid payload under a new object id")
}
