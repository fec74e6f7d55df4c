package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/signalnine/abebench/internal/abe"
)

var flagAttrs []string

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy [expression]",
		Short: "Parse a policy and show its access tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := ""
			if len(args) > 0 {
				expr = args[0]
			} else {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				expr = cfg.Policy
			}
			tree, err := abe.ParsePolicy(expr)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", tree)
			printf(cmd, "%s", renderPolicy(tree))
			if len(flagAttrs) > 0 {
				set := make(map[string]bool, len(flagAttrs))
				for _, a := range flagAttrs {
					set[a] = true
				}
				printf(cmd, "Satisfied by [%s]: %t\n", strings.Join(flagAttrs, ", "), tree.Satisfied(set))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&flagAttrs, "attrs", nil, "check whether these attributes satisfy the policy")
	return cmd
}

func renderPolicy(n *abe.Node) string {
	root := treeprint.NewWithRoot(n.Gate())
	addPolicyNodes(root, n)
	return root.String()
}

func addPolicyNodes(branch treeprint.Tree, n *abe.Node) {
	for _, c := range n.Children {
		if c.IsLeaf() {
			branch.AddNode(c.Attribute)
			continue
		}
		addPolicyNodes(branch.AddBranch(c.Gate()), c)
	}
}
