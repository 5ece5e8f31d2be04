// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/danos/mgmterror"
	"github.com/spf13/cobra"

	"github.com/sdcio/yang-datatree/data/diff"
	"github.com/sdcio/yang-datatree/data/encoding"
	"github.com/sdcio/yang-datatree/data/tree"
	"github.com/sdcio/yang-datatree/data/validate"
	"github.com/sdcio/yang-datatree/schema"
)

func formatFromName(name string) (encoding.Format, error) {
	switch strings.ToLower(name) {
	case "xml":
		return encoding.FormatXML, nil
	case "json":
		return encoding.FormatJSON, nil
	case "lyb":
		return encoding.FormatLYB, nil
	default:
		return 0, fmt.Errorf("unknown format %q", name)
	}
}

func wdFromName(name string) (encoding.WithDefaultsMode, error) {
	switch strings.ToLower(name) {
	case "explicit":
		return encoding.WDExplicit, nil
	case "trim":
		return encoding.WDTrim, nil
	case "all":
		return encoding.WDAll, nil
	case "all-tagged":
		return encoding.WDAllTag, nil
	case "impl-tagged":
		return encoding.WDImplTag, nil
	default:
		return 0, fmt.Errorf("unknown with-defaults mode %q", name)
	}
}

func parseFile(path, format string, strict bool) (*tree.Node, error) {
	ms, err := loadSchema()
	if err != nil {
		return nil, err
	}
	f, err := formatFromName(format)
	if err != nil {
		return nil, err
	}
	var opts encoding.ParseOption
	if strict {
		opts |= encoding.ParseStrict
	}
	return encoding.Parse(ms, encoding.FileSource(path), f, opts,
		encoding.KindData, nil)
}

func newParseCmd() *cobra.Command {
	var format string
	var strict bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse and validate an instance document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := parseFile(args[0], format, strict)
			if err != nil {
				return err
			}
			defer tree.Free(root)
			fmt.Println("OK")
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "xml", "input format (xml|json|lyb)")
	cmd.Flags().BoolVar(&strict, "strict", false, "strict parsing")
	return cmd
}

func newPrintCmd() *cobra.Command {
	var inFormat, outFormat, wdMode string
	var pretty bool
	cmd := &cobra.Command{
		Use:   "print <file>",
		Short: "Re-encode an instance document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := loadSchema()
			if err != nil {
				return err
			}
			inF, err := formatFromName(inFormat)
			if err != nil {
				return err
			}
			outF, err := formatFromName(outFormat)
			if err != nil {
				return err
			}
			wd, err := wdFromName(wdMode)
			if err != nil {
				return err
			}
			root, err := encoding.Parse(ms, encoding.FileSource(args[0]),
				inF, 0, encoding.KindData, nil)
			if err != nil {
				return err
			}
			defer tree.Free(root)

			var popts encoding.PrintOption
			popts |= encoding.PrintWithSiblings
			if pretty {
				popts |= encoding.PrintPretty
			}
			return encoding.Print(ms, root, encoding.WriterSink(os.Stdout),
				outF, popts, wd)
		},
	}
	cmd.Flags().StringVarP(&inFormat, "in", "i", "xml", "input format (xml|json|lyb)")
	cmd.Flags().StringVarP(&outFormat, "out", "o", "json", "output format (xml|json|lyb)")
	cmd.Flags().StringVar(&wdMode, "with-defaults", "explicit",
		"with-defaults mode (explicit|trim|all|all-tagged|impl-tagged)")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print output")
	return cmd
}

func newDiffCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "diff <file-a> <file-b>",
		Short: "Structurally diff two instance documents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseFile(args[0], format, false)
			if err != nil {
				return err
			}
			defer tree.Free(a)
			b, err := parseFile(args[1], format, false)
			if err != nil {
				return err
			}
			defer tree.Free(b)

			d := diff.Diff(a, b, diff.Options{})
			fmt.Print(d.String())
			if !d.Empty() {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "xml", "input format (xml|json|lyb)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var format string
	var strict, schemaCheck bool
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate an instance document, reporting every error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := loadSchema()
			if err != nil {
				return err
			}
			f, err := formatFromName(format)
			if err != nil {
				return err
			}
			// Parse trusted, then run the validator separately so the
			// tree survives for inspection on failure.
			root, err := encoding.Parse(ms, encoding.FileSource(args[0]),
				f, encoding.ParseTrusted, encoding.KindData, nil)
			if err != nil {
				return err
			}
			defer tree.Free(root)

			_, verr := validate.Validate(root, validate.Data, nil,
				validate.Options{Strict: strict})
			if verr != nil {
				return verr
			}

			if schemaCheck {
				// Second opinion from the schema-facing validator,
				// driven over the datanode snapshot of the tree.
				if _, errs, ok := schema.NewSchemaValidator(
					ms, root.ToDataNode()).Validate(); !ok {
					var list mgmterror.MgmtErrorList
					list.MgmtErrorListAppend(errs...)
					return list
				}
			}
			fmt.Println("valid")
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "xml", "input format (xml|json|lyb)")
	cmd.Flags().BoolVar(&strict, "strict", false, "strict validation")
	cmd.Flags().BoolVar(&schemaCheck, "schema-check", false,
		"also run the schema-facing validator over the tree")
	return cmd
}
