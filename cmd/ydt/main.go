// SPDX-License-Identifier: MPL-2.0

// ydt is a small command-line harness over the data-tree engine: parse,
// print, diff and validate instance documents against a compiled YANG
// directory, plus an xpath subcommand for checking expressions compile.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sdcio/yang-datatree/compile"
	"github.com/sdcio/yang-datatree/schema"
)

var (
	yangDir string
	debug   bool
)

func main() {
	root := &cobra.Command{
		Use:          "ydt",
		Short:        "YANG data-tree toolbox",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&yangDir, "yang-dir", ".",
		"directory containing the YANG modules to compile")
	root.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging")

	root.AddCommand(
		newParseCmd(),
		newPrintCmd(),
		newDiffCmd(),
		newValidateCmd(),
		newXpathCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSchema compiles the configured YANG directory into a model set,
// config and state nodes both included.
func loadSchema() (schema.ModelSet, error) {
	return compile.CompileDir(nil, &compile.Config{
		YangDir: yangDir,
		Filter: compile.Include(compile.IsConfig,
			compile.IncludeState(true)),
	})
}
