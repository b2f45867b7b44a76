package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/7hebel/SuperCSV/internal/history"
	"github.com/spf13/cobra"
)

var (
	logLimit int
	catRev   string

	logCmd = &cobra.Command{
		Use:   "log <file>",
		Short: "List the document's recorded revisions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := history.Open(filepath.Dir(args[0]))
			if err != nil {
				return err
			}
			commits, err := hist.Log(filepath.Base(args[0]), logLimit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 8, 2, ' ', 0)
			for _, c := range commits {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Hash[:8],
					c.When.Format(time.DateTime), c.Subject)
			}
			return tw.Flush()
		},
	}

	catCmd = &cobra.Command{
		Use:   "cat <file>",
		Short: "Print the document as recorded at a revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hist, err := history.Open(filepath.Dir(args[0]))
			if err != nil {
				return err
			}
			data, err := hist.FileAt(catRev, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "n", 20, "Number of revisions to list")
	catCmd.Flags().StringVar(&catRev, "rev", "HEAD", "Revision to print (commit hash or HEAD)")
}
