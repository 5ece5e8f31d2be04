// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdcio/yang-datatree/xpath"
	"github.com/sdcio/yang-datatree/xpath/grammars/expr"
)

// newXpathCmd checks that when/must XPath expressions compile, either
// from arguments or one per line on stdin.  Handy for sweeping the
// expressions of a YANG corpus through the machine builder.
func newXpathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "xpath [expression...]",
		Short: "Check that XPath expressions compile",
		RunE: func(cmd *cobra.Command, args []string) error {
			total, failed := 0, 0
			check := func(exprStr string) {
				total++
				if err := compileExpr(exprStr); err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "FAIL %q: %v\n", exprStr, err)
				}
			}

			if len(args) > 0 {
				for _, a := range args {
					check(a)
				}
			} else {
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					if line := scanner.Text(); line != "" {
						check(line)
					}
				}
				if err := scanner.Err(); err != nil {
					return err
				}
			}

			passRatio := float64(total-failed) * 100 / float64(total)
			fmt.Printf("Pass-Ratio: %.2f%%, Total: %d, Pass: %d, Failed: %d\n",
				passRatio, total, total-failed, failed)
			if failed > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
}

func compileExpr(exprStr string) error {
	prgbuilder := xpath.NewProgBuilder(exprStr)
	lexer := expr.NewExprLex(exprStr, prgbuilder, nil)
	lexer.Parse()
	_, err := lexer.CreateProgram(exprStr)
	return err
}
