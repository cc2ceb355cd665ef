package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/matchday/internal/capability"
	"github.com/ShayCichocki/matchday/pkg/models"
)

var matrixYAML bool

var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Show the capability matrix used for routing",
	Long: `Print the agent capability matrix: how well each agent handles each
capability. Loaded from paths.matrix, or the built-in table when unset.

Use --yaml to print it in the file layout, as a starting point for a custom matrix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := capability.Load(cfg.Paths.Matrix)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if matrixYAML {
			data, err := m.Marshal()
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}
		return printMatrix(out, m)
	},
}

func init() {
	matrixCmd.Flags().BoolVar(&matrixYAML, "yaml", false, "Print as YAML")
}

// printMatrix writes one row per agent and one column per capability.
func printMatrix(w io.Writer, m *capability.Matrix) error {
	caps := models.AllCapabilities()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprint(tw, "AGENT")
	for _, c := range caps {
		fmt.Fprintf(tw, "\t%s", c)
	}
	fmt.Fprintln(tw)

	for _, agentID := range m.Agents() {
		fmt.Fprint(tw, agentID)
		for _, c := range caps {
			if s := m.Score(agentID, c); s > 0 {
				fmt.Fprintf(tw, "\t%.1f", s)
			} else {
				fmt.Fprint(tw, "\t-")
			}
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
