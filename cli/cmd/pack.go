package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/relvacode/iso8601"
	"github.com/spf13/cobra"
	"github.com/wkalt/tbin/archive"
	"github.com/wkalt/tbin/cli/util"
	"github.com/wkalt/tbin/util/log"
)

var (
	packOutput      string
	packFromStore   bool
	packStruct      bool
	packTopic       string
	packStart       string
	packCompression string
)

var packCmd = &cobra.Command{
	Use:   "pack -f out.mcap [pattern]...",
	Short: "Bundle payloads into an MCAP archive",
	Long: `Bundle payloads into an MCAP archive. Each payload is validated
first. Messages are filed under a topic named for their method unless --topic
is set. Log times start at --start and advance by one nanosecond per payload,
preserving argument order.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Usage()
			return
		}
		start := time.Now()
		if packStart != "" {
			var err error
			start, err = iso8601.Parse([]byte(packStart))
			if err != nil {
				bailf("error parsing start time: %s", err)
			}
		}
		compression, err := archive.ParseCompression(packCompression)
		checkErr(err)
		ctx := context.Background()
		names, err := expandArgs(ctx, packFromStore, args)
		checkErr(err)
		if len(names) == 0 {
			bailf("no payloads match %v", args)
		}
		load, err := newLoader(packFromStore)
		checkErr(err)
		records, err := packRecords(ctx, names, load, start)
		checkErr(err)
		checkErr(writeArchive(packOutput, records, archive.WithCompression(compression)))
		log.Infow(ctx, "wrote archive", "file", packOutput, "payloads", len(records))
	},
}

// packRecords loads and validates every payload. Nothing is written until all
// of them pass.
func packRecords(ctx context.Context, names []string, load loader, start time.Time) ([]archive.Record, error) {
	records := make([]archive.Record, 0, len(names))
	for i, name := range names {
		data, err := load(ctx, name)
		if err != nil {
			return nil, err
		}
		topic, err := packTopicFor(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		records = append(records, archive.Record{
			Topic:   topic,
			LogTime: start.Add(time.Duration(i)),
			Bare:    packStruct,
			Data:    data,
		})
	}
	return records, nil
}

// writeArchive writes records to a new file at path. A partial file is
// removed on failure.
func writeArchive(path string, records []archive.Record, options ...archive.WriterOption) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close archive: %w", cerr)
		}
		if err != nil {
			os.Remove(path) // nolint: errcheck
		}
	}()
	bw := bufio.NewWriter(f)
	w, err := archive.NewWriter(bw, options...)
	if err != nil {
		return err
	}
	for _, rec := range records {
		seq, err := w.Add(rec)
		if err != nil {
			return err
		}
		log.Debugw(context.Background(), "archived payload", "topic", rec.Topic, "sequence", seq)
	}
	if err := w.Close(); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush archive: %w", err)
	}
	return nil
}

func packTopicFor(data []byte) (string, error) {
	if packStruct {
		if _, err := util.ValidateStruct(data, readerOptions()...); err != nil {
			return "", err
		}
		if packTopic == "" {
			return "struct", nil
		}
		return packTopic, nil
	}
	summary, err := util.ValidateMessage(data, readerOptions()...)
	if err != nil {
		return "", err
	}
	if packTopic == "" {
		return summary.Name, nil
	}
	return packTopic, nil
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.PersistentFlags().StringVarP(&packOutput, "file", "f", "", "Output file")
	packCmd.PersistentFlags().BoolVarP(&packFromStore, "object", "o", false, "Match patterns against object ids in the store")
	packCmd.PersistentFlags().BoolVar(&packStruct, "struct", false, "Payloads are bare structs, not messages")
	packCmd.PersistentFlags().StringVar(&packTopic, "topic", "", "Topic for every payload")
	packCmd.PersistentFlags().StringVar(&packStart, "start", "", "ISO-8601 log time of the first payload (default now)")
	packCmd.PersistentFlags().StringVar(&packCompression, "compression", "zstd", "Chunk compression (zstd, lz4, none)")
	packCmd.MarkPersistentFlagRequired("file") // nolint: errcheck
}
