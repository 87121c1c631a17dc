package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wkalt/tbin/binproto"
	"github.com/wkalt/tbin/cli/util"
	"github.com/wkalt/tbin/dynamic"
	"github.com/wkalt/tbin/util/log"
)

var (
	emitName   string
	emitType   string
	emitSeqID  uint32
	emitOutput string
	emitPut    bool
)

var messageTypes = map[string]binproto.MessageType{
	"call":      binproto.CALL,
	"reply":     binproto.REPLY,
	"exception": binproto.EXCEPTION,
	"oneway":    binproto.ONEWAY,
}

var emitCmd = &cobra.Command{
	Use:   "emit --name ping [--type call] [--seqid 0] [-f out.bin | --put]",
	Short: "Write a message with an empty body",
	Run: func(cmd *cobra.Command, args []string) {
		typ, ok := messageTypes[emitType]
		if !ok {
			bailf("invalid message type: %s", emitType)
		}
		msg := &dynamic.Message{Name: emitName, Type: typ, SeqID: emitSeqID}
		ctx := log.AddTags(context.Background(), "name", emitName, "type", typ.String())

		switch {
		case emitPut:
			store, err := openStore()
			checkErr(err)
			data := binproto.Serialize(msg)
			id := uuid.New().String()
			checkErr(store.Put(ctx, id, data))
			log.Infow(ctx, "stored message", "id", id, "bytes", len(data))
			fmt.Fprintln(os.Stdout, id)
		case emitOutput != "":
			f, err := os.Create(emitOutput)
			checkErr(err)
			n, err := binproto.WriteTo(f, msg)
			checkErr(err)
			checkErr(f.Close())
			log.Infow(ctx, "wrote message", "file", emitOutput, "bytes", n)
		default:
			if !util.StdoutRedirected() {
				bailf("refusing to write binary to a terminal; use -f or redirect stdout")
			}
			_, err := binproto.WriteTo(os.Stdout, msg)
			checkErr(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(emitCmd)
	emitCmd.PersistentFlags().StringVarP(&emitName, "name", "n", "", "Method name")
	emitCmd.PersistentFlags().StringVar(&emitType, "type", "call", "Message type (call, reply, exception, oneway)")
	emitCmd.PersistentFlags().Uint32Var(&emitSeqID, "seqid", 0, "Sequence id")
	emitCmd.PersistentFlags().StringVarP(&emitOutput, "file", "f", "", "Output file")
	emitCmd.PersistentFlags().BoolVar(&emitPut, "put", false, "Store the message under a new object id")
	emitCmd.MarkPersistentFlagRequired("name") // nolint: errcheck
}
