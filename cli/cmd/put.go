package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wkalt/tbin/cli/util"
	"github.com/wkalt/tbin/util/log"
)

var putValidate bool

var putCmd = &cobra.Command{
	Use:   "put [file]...",
	Short: "Upload payloads to the store",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Usage()
			return
		}
		ctx := context.Background()
		store, err := openStore()
		checkErr(err)
		files, err := util.ExpandFiles(args)
		checkErr(err)
		for _, file := range files {
			ctx := log.AddTags(ctx, "file", file)
			data, err := os.ReadFile(file)
			checkErr(err)
			if putValidate {
				if _, err := util.ValidateMessage(data, readerOptions()...); err != nil {
					bailf("%s: %v", file, err)
				}
			}
			id := uuid.New().String()
			checkErr(store.Put(ctx, id, data))
			log.Debugw(ctx, "stored payload", "id", id, "bytes", len(data))
			fmt.Fprintf(os.Stdout, "%s %s\n", file, id)
		}
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.PersistentFlags().BoolVar(&putValidate, "validate", false, "Validate each payload as a message before storing it")
}
