package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/sapphire-lang/sapphire/ast"
	"github.com/sapphire-lang/sapphire/sexp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	nodeStyle  = color.New(color.FgCyan)
	valueStyle = color.New(color.FgYellow)
	mutedStyle = color.New(color.FgHiBlack)
)

func newASTCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ast [flags] [FILE]",
		Short: "Parse an s-expression and print its syntax tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return astHandler(cmd, args)
		},
	}
	addInputFlags(cmd)
	cmd.Flags().StringP("output", "o", "tree", "output format: tree, json or sexp")
	return cmd
}

func astHandler(cmd *cobra.Command, args []string) error {
	unit, err := getUnit(cmd, args)
	if err != nil {
		return err
	}
	node, err := ast.Parse(unit.Source)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch format, _ := cmd.Flags().GetString("output"); format {
	case "tree":
		printNode(out, node, "", true, true)
	case "json":
		return writeJSON(out, nodeToJSON(node))
	case "sexp":
		fmt.Fprintln(out, sexp.Format(ast.Encode(node)))
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

// ASTNode represents a node in the JSON AST output
type ASTNode struct {
	Type     string     `json:"type"`
	Value    string     `json:"value,omitempty"`
	Children []*ASTNode `json:"children,omitempty"`
}

func nodeToJSON(node ast.Node) *ASTNode {
	result := &ASTNode{Type: node.Kind().String(), Value: nodeValue(node)}
	for _, child := range ast.Children(node) {
		result.Children = append(result.Children, nodeToJSON(child))
	}
	return result
}

// nodeValue is the detail printed next to a node's kind: the name it
// reads or writes, its literal value or its operator.
func nodeValue(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Lit:
		return sexp.Format(n.Value)
	case *ast.Str:
		return fmt.Sprintf("%q", n.Value)
	case *ast.LocalVar:
		return n.Name
	case *ast.LocalAsgn:
		return n.Name
	case *ast.InstanceVar:
		return n.Name
	case *ast.InstanceAsgn:
		return n.Name
	case *ast.GlobalVar:
		return n.Name
	case *ast.GlobalAsgn:
		return n.Name
	case *ast.Const:
		return n.Name
	case *ast.Colon2:
		return n.Name
	case *ast.Call:
		return n.Method
	case *ast.AttrAsgn:
		return n.Method
	case *ast.OpAsgn1:
		return n.Op
	case *ast.OpAsgn2:
		return n.Setter + " " + n.Op
	}
	return ""
}

func printNode(w io.Writer, node ast.Node, indent string, isLast, isRoot bool) {
	connector := "├─ "
	childIndent := indent + "│  "
	if isLast {
		connector = "└─ "
		childIndent = indent + "   "
	}
	if isRoot {
		connector = ""
		childIndent = ""
	}

	line := mutedStyle.Sprint(indent+connector) + nodeStyle.Sprint(node.Kind().String())
	if value := nodeValue(node); value != "" {
		line += " " + valueStyle.Sprint(value)
	}
	fmt.Fprintln(w, line)

	children := ast.Children(node)
	for i, child := range children {
		printNode(w, child, childIndent, i == len(children)-1, false)
	}
}
