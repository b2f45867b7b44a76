package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	scsv "github.com/7hebel/SuperCSV"
	"github.com/7hebel/SuperCSV/internal/lockfile"
	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	exportFormat string

	showCmd = &cobra.Command{
		Use:   "show <file>",
		Short: "Print the document as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scsv.Open(args[0])
			if err != nil {
				return err
			}
			return printTable(os.Stdout, doc)
		},
	}

	getFormat string

	getCmd = &cobra.Command{
		Use:   "get <file> <index> [column]",
		Short: "Print one row as JSON or YAML, or one cell as plain text",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scsv.Open(args[0])
			if err != nil {
				return err
			}
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			row, ok, err := doc.Read(i)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("row %d does not exist", i)
			}
			if len(args) == 3 {
				v, ok := row[args[2]]
				if !ok {
					return fmt.Errorf("no column %q", args[2])
				}
				fmt.Println(v)
				return nil
			}
			switch getFormat {
			case "json":
				data, err := json.MarshalIndent(row, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			case "yaml":
				data, err := yaml.Marshal(row)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			default:
				return fmt.Errorf("unknown format %q, want json or yaml", getFormat)
			}
			return nil
		},
	}

	infoCmd = &cobra.Command{
		Use:   "info <file>",
		Short: "Print the document's columns, size and last writer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scsv.Open(args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 2, 8, 2, ' ', 0)
			fmt.Fprintf(tw, "path\t%s\n", doc.Path())
			fmt.Fprintf(tw, "rows\t%d\n", doc.Len())
			for _, f := range doc.Fields() {
				t, _ := doc.TypeOf(f)
				fmt.Fprintf(tw, "column\t%s\t%s\n", f, t)
			}
			if owner, err := lockfile.ReadOwner(args[0]); err == nil {
				fmt.Fprintf(tw, "last writer\tpid %d\t%s\n", owner.PID,
					owner.AcquiredAt.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}

	exportCmd = &cobra.Command{
		Use:   "export <file>",
		Short: "Export all rows as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scsv.Open(args[0])
			if err != nil {
				return err
			}
			rows := make([]scsv.Row, 0, doc.Len())
			for row, err := range doc.All() {
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}
			switch exportFormat {
			case "json":
				data, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			case "yaml":
				data, err := yaml.Marshal(rows)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			default:
				return fmt.Errorf("unknown format %q, want json or yaml", exportFormat)
			}
			return nil
		},
	}

	schemaCmd = &cobra.Command{
		Use:   "schema <file>",
		Short: "Print a JSON Schema describing the document's rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scsv.Open(args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(rowSchema(doc), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
)

// rowSchema builds the JSON Schema a row object must satisfy to be accepted
// by the append and update operations.
func rowSchema(doc *scsv.Document) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	fields := doc.Fields()
	for _, f := range fields {
		t, _ := doc.TypeOf(f)
		props.Set(f, columnSchema(t))
	}
	return &jsonschema.Schema{
		Version:              jsonschema.Version,
		Type:                 "object",
		Properties:           props,
		Required:             fields,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

func columnSchema(t scsv.Type) *jsonschema.Schema {
	switch t {
	case scsv.TypeInteger:
		return &jsonschema.Schema{Type: "integer"}
	case scsv.TypeFloat:
		return &jsonschema.Schema{Type: "number"}
	case scsv.TypeString:
		return &jsonschema.Schema{Type: "string"}
	case scsv.TypeBoolean:
		return &jsonschema.Schema{Type: "boolean"}
	case scsv.TypeDateTime:
		// Accepted as an RFC 3339 string or POSIX seconds.
		return &jsonschema.Schema{OneOf: []*jsonschema.Schema{
			{Type: "string", Format: "date-time"},
			{Type: "number"},
		}}
	case scsv.TypeArray:
		return &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{
				{Type: "boolean"},
				{Type: "string"},
				{Type: "number"},
			},
		}}
	case scsv.TypeObject:
		return jsonschema.TrueSchema
	}
	return jsonschema.TrueSchema
}

func init() {
	getCmd.Flags().StringVar(&getFormat, "format", "json", "Output format (json, yaml)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format (json, yaml)")
}
