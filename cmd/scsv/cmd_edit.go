package main

import (
	"fmt"

	scsv "github.com/7hebel/SuperCSV"
	"github.com/spf13/cobra"
)

var (
	commitChange bool

	setCmd = &cobra.Command{
		Use:   "set <file> <index> <column> <value>",
		Short: "Replace one cell, keeping the rest of the row",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scsv.Open(args[0])
			if err != nil {
				return err
			}
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			column := args[2]
			t, ok := doc.TypeOf(column)
			if !ok {
				return fmt.Errorf("no column %q", column)
			}
			j, err := literalJSON(t, args[3])
			if err != nil {
				return err
			}
			row, err := doc.RowFromJSON(map[string]scsv.JSON{column: j})
			if err != nil {
				return err
			}
			if err := doc.UpdateField(i, column, row[column]); err != nil {
				return err
			}
			if commitChange {
				recordHistory(args[0], fmt.Sprintf("update row %d, column %s", i, column))
			}
			return nil
		},
	}

	appendCmd = &cobra.Command{
		Use:   "append <file> <column=value>...",
		Short: "Add a row and print its index",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scsv.Open(args[0])
			if err != nil {
				return err
			}
			values, err := parseAssignments(doc, args[1:])
			if err != nil {
				return err
			}
			row, err := doc.RowFromJSON(values)
			if err != nil {
				return err
			}
			if err := doc.Append(row); err != nil {
				return err
			}
			i := doc.Len() - 1
			if commitChange {
				recordHistory(args[0], fmt.Sprintf("append row %d", i))
			}
			fmt.Println(i)
			return nil
		},
	}

	rmCmd = &cobra.Command{
		Use:   "rm <file> <index>",
		Short: "Delete a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scsv.Open(args[0])
			if err != nil {
				return err
			}
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			if err := doc.DeleteRow(i); err != nil {
				return err
			}
			if commitChange {
				recordHistory(args[0], fmt.Sprintf("delete row %d", i))
			}
			return nil
		},
	}
)

func init() {
	for _, cmd := range []*cobra.Command{setCmd, appendCmd, rmCmd} {
		cmd.Flags().BoolVar(&commitChange, "commit", false, "Record the change in the document's revision history")
	}
}
