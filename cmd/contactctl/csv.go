package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"contact-service/internal/dto"

	"github.com/spf13/cobra"
)

type importOptions struct {
	organizationID uint
	file           string
	opts           dto.ImportOptions
}

func newImportCmd(a *app) *cobra.Command {
	o := importOptions{opts: dto.DefaultImportOptions()}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import contacts from a CSV file",
		Long: `Import reads phone_number,name,<attributes...> rows (or the legacy
Name,Phone Number,<Attribute Headers...> layout) into an organization and
prints the import summary as JSON.

Example:
  contactctl import --org 1 --file contacts.csv
  contactctl import --org 1 --file contacts.csv --update-existing=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, a, o)
		},
	}

	cmd.Flags().UintVar(&o.organizationID, "org", 0, "organization id (required)")
	cmd.Flags().StringVar(&o.file, "file", "", "CSV file to import, - for stdin (required)")
	cmd.Flags().BoolVar(&o.opts.UpdateExisting, "update-existing", o.opts.UpdateExisting, "update contacts whose phone number already exists")
	cmd.Flags().BoolVar(&o.opts.CreateNewAttributes, "create-new-attributes", o.opts.CreateNewAttributes, "create definitions for unknown attribute columns")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(cmd *cobra.Command, a *app, o importOptions) error {
	if o.organizationID == 0 {
		return errors.New("--org must be a positive organization id")
	}

	var r io.Reader = cmd.InOrStdin()
	if o.file != "-" {
		f, err := os.Open(o.file)
		if err != nil {
			return fmt.Errorf("open %s: %w", o.file, err)
		}
		defer f.Close()
		r = f
	}

	summary, err := a.services.Import.Import(cmd.Context(), o.organizationID, r, o.opts)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func newExportCmd(a *app) *cobra.Command {
	var (
		organizationID uint
		out            string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an organization's contacts as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if organizationID == 0 {
				return errors.New("--org must be a positive organization id")
			}

			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}

			n, err := a.services.Export.Export(cmd.Context(), organizationID, w)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if out != "" && out != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d contacts to %s\n", n, out)
			}
			return nil
		},
	}

	cmd.Flags().UintVar(&organizationID, "org", 0, "organization id (required)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: stdout)")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}
