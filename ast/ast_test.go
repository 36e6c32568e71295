package ast

import (
	"testing"

	"github.com/sapphire-lang/sapphire/errors"
	"github.com/sapphire-lang/sapphire/sexp"
	"github.com/stretchr/testify/require"
)

func TestKindNames(t *testing.T) {
	for k := KindNil; k <= KindEnsure; k++ {
		name := k.String()
		got, ok := KindOf(name)
		require.True(t, ok, name)
		require.Equal(t, k, got)
		require.NotEmpty(t, Shapes[k], name)
	}
	_, ok := KindOf("invalid")
	require.False(t, ok)
	require.Equal(t, "invalid", Kind(999).String())
}

func TestParseOr(t *testing.T) {
	node, err := Parse(`[:or, [:call, nil, :a, [:arglist]], [:call, nil, :b, [:arglist]]]`)
	require.NoError(t, err)
	or, ok := node.(*Or)
	require.True(t, ok)
	left := or.Left.(*Call)
	require.Nil(t, left.Receiver)
	require.Equal(t, "a", left.Method)
	require.Empty(t, left.Args)
	require.Equal(t, KindOr, node.Kind())
}

func TestParseOpAsgn(t *testing.T) {
	node, err := Parse(`[:op_asgn1, [:ivar, :@b], [:arglist, [:lit, 3]], :+, [:lit, 12]]`)
	require.NoError(t, err)
	n := node.(*OpAsgn1)
	require.Equal(t, &InstanceVar{Name: "@b"}, n.Receiver)
	require.Equal(t, []Node{&Lit{Value: int64(3)}}, n.Args)
	require.Equal(t, "+", n.Op)

	node, err = Parse(`[:op_asgn2, [:lvar, :c], :var=, :"||", [:lit, 20]]`)
	require.NoError(t, err)
	n2 := node.(*OpAsgn2)
	require.Equal(t, "var=", n2.Setter)
	require.Equal(t, "var", n2.Getter())
	require.Equal(t, "||", n2.Op)

	node, err = Parse(`[:op_asgn_or, [:lvar, :a], [:lasgn, :a, [:lit, 1]]]`)
	require.NoError(t, err)
	n3 := node.(*OpAsgnOr)
	require.Equal(t, &LocalVar{Name: "a"}, n3.Read)
	require.Equal(t, &LocalAsgn{Name: "a", Value: &Lit{Value: int64(1)}}, n3.Write)
}

func TestAsgnTargetsMatch(t *testing.T) {
	inputs := []string{
		`[:op_asgn_or, [:gvar, :$cache], [:gasgn, :$cache, [:array]]]`,
		`[:op_asgn_and, [:ivar, :@a], [:iasgn, :@a, [:nil]]]`,
		`[:op_asgn_or, [:call, [:call, nil, :foo, [:arglist]], :x, [:arglist]], [:attrasgn, [:call, nil, :foo, [:arglist]], :x=, [:arglist, [:lit, 1]]]]`,
		`[:op_asgn_and, [:call, nil, :x, [:arglist]], [:call, nil, :x=, [:arglist, [:lit, 2]]]]`,
	}
	for _, input := range inputs {
		_, err := Parse(input)
		require.NoError(t, err, input)
	}

	recv, setter, args, ok := AttrWriter(&Call{Method: "x=", Args: []Node{&Nil{}}})
	require.True(t, ok)
	require.Nil(t, recv)
	require.Equal(t, "x=", setter)
	require.Len(t, args, 1)
	_, _, _, ok = AttrWriter(&Call{Method: "x"})
	require.False(t, ok)
}

func TestParseEnsureRescue(t *testing.T) {
	node, err := Parse(`
[:ensure,
  [:rescue,
    [:call, [:lit, 1], :+, [:arglist, [:lit, 1]]],
    [:resbody, [:array, [:const, :SyntaxError], [:lasgn, :e1, [:gvar, :$!]]], [:lit, 2]],
    [:resbody, [:array, [:const, :Exception], [:lasgn, :e2, [:gvar, :$!]]], [:lit, 3]],
    [:lit, 4]],
  [:lit, 5]]`)
	require.NoError(t, err)
	ensure := node.(*Ensure)
	rescue := ensure.Body.(*Rescue)
	require.Len(t, rescue.Clauses, 2)
	require.Equal(t, []Node{&Const{Name: "SyntaxError"}}, rescue.Clauses[0].Classes)
	require.Equal(t, &LocalAsgn{Name: "e1", Value: &GlobalVar{Name: "$!"}}, rescue.Clauses[0].Capture)
	require.Equal(t, &Lit{Value: int64(4)}, rescue.Else)
	require.Equal(t, &Lit{Value: int64(5)}, ensure.Ensure)
	require.True(t, rescue.Clauses[1].Capture.(*LocalAsgn).Value.(*GlobalVar).IsException())
}

func TestParseRescueWithoutBody(t *testing.T) {
	node, err := Parse(`[:ensure, [:rescue, [:resbody, [:array], nil]], [:nil]]`)
	require.NoError(t, err)
	rescue := node.(*Ensure).Body.(*Rescue)
	require.Nil(t, rescue.Body)
	require.Len(t, rescue.Clauses, 1)
	require.Empty(t, rescue.Clauses[0].Classes)
	require.Nil(t, rescue.Clauses[0].Body)
	require.Nil(t, rescue.Else)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.ErrorCode
		kind  string
	}{
		{"unknown kind", `[:yield, [:lit, 1]]`, errors.E1001, "yield"},
		{"nested unknown kind", `[:or, [:nil], [:redo]]`, errors.E1001, "redo"},
		{"or arity", `[:or, [:nil]]`, errors.E1002, "or"},
		{"and nil child", `[:and, nil, [:nil]]`, errors.E1002, "node"},
		{"resbody missing body", `[:rescue, [:nil], [:resbody, [:array]]]`, errors.E1002, "resbody"},
		{"standalone resbody", `[:resbody, [:array], nil]`, errors.E1002, "resbody"},
		{"standalone arglist", `[:arglist, [:lit, 1]]`, errors.E1002, "arglist"},
		{"rescue without clauses", `[:rescue, [:nil]]`, errors.E1002, "rescue"},
		{"rescue extra after else", `[:rescue, [:nil], [:resbody, [:array], nil], [:nil], [:nil]]`, errors.E1002, "rescue"},
		{"op_asgn2 setter", `[:op_asgn2, [:self], :Bag, :"||", [:nil]]`, errors.E1002, "op_asgn2"},
		{"op_asgn1 arglist", `[:op_asgn1, [:self], [:array], :+, [:nil]]`, errors.E1002, "op_asgn1"},
		{"op_asgn_or target", `[:op_asgn_or, [:lit, 1], [:lasgn, :a, [:nil]]]`, errors.E1002, "op_asgn_or"},
		{"op_asgn_and writer", `[:op_asgn_and, [:lvar, :a], [:lit, 1]]`, errors.E1002, "op_asgn_and"},
		{"op_asgn_or other local", `[:op_asgn_or, [:lvar, :a], [:lasgn, :b, [:lit, 1]]]`, errors.E1002, "op_asgn_or"},
		{"op_asgn_or ivar into local", `[:op_asgn_or, [:ivar, :@a], [:lasgn, :a, [:lit, 1]]]`, errors.E1002, "op_asgn_or"},
		{"op_asgn_and other attribute", `[:op_asgn_and, [:call, [:self], :x, [:arglist]], [:attrasgn, [:self], :y=, [:arglist, [:lit, 1]]]]`, errors.E1002, "op_asgn_and"},
		{"op_asgn_or other receiver", `[:op_asgn_or, [:call, [:lvar, :a], :x, [:arglist]], [:attrasgn, [:lvar, :b], :x=, [:arglist, [:lit, 1]]]]`, errors.E1002, "op_asgn_or"},
		{"op_asgn_or reader with arguments", `[:op_asgn_or, [:call, [:self], :x, [:arglist, [:lit, 1]]], [:attrasgn, [:self], :x=, [:arglist, [:lit, 1]]]]`, errors.E1002, "op_asgn_or"},
		{"op_asgn_or writer with two arguments", `[:op_asgn_or, [:call, [:self], :x, [:arglist]], [:attrasgn, [:self], :x=, [:arglist, [:lit, 1], [:lit, 2]]]]`, errors.E1002, "op_asgn_or"},
		{"op_asgn_and call that is no setter", `[:op_asgn_and, [:call, nil, :x, [:arglist]], [:call, nil, :x, [:arglist, [:lit, 1]]]]`, errors.E1002, "op_asgn_and"},
		{"lit string", `[:lit, "x"]`, errors.E1002, "lit"},
		{"odd hash", `[:hash, [:lit, 1]]`, errors.E1002, "hash"},
		{"untagged", `[1, 2]`, errors.E1002, "node"},
		{"call without arglist", `[:call, nil, :a, nil]`, errors.E1002, "call"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			ce, ok := err.(*errors.CompileError)
			require.True(t, ok)
			require.Equal(t, tt.code, ce.Code)
			require.Equal(t, tt.kind, ce.Kind)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	inputs := []string{
		`[:or, [:or, [:call, nil, :a, [:arglist]], [:call, nil, :b, [:arglist]]], [:and, [:call, nil, :c, [:arglist]], [:call, nil, :d, [:arglist]]]]`,
		`[:op_asgn1, [:lvar, :b], [:arglist, [:lit, 1]], :"||", [:lit, 10]]`,
		`[:op_asgn2, [:call, [:call, [:lvar, :c], :d, [:arglist]], :e, [:arglist]], :f=, :"||", [:lit, 42]]`,
		`[:op_asgn_and, [:ivar, :@fetcher], [:iasgn, :@fetcher, [:hash]]]`,
		`[:ensure, [:rescue, [:call, nil, :a, [:arglist]], [:resbody, [:array, [:lasgn, :mes, [:gvar, :$!]]], nil]], [:nil]]`,
		`[:block, [:if, [:true], [:str, "yes"], nil], [:colon2, [:const, :A], :B]]`,
		`[:attrasgn, [:self], :x=, [:arglist, [:lit, 1.5]]]`,
	}
	for _, input := range inputs {
		node, err := Parse(input)
		require.NoError(t, err)
		require.Equal(t, input, node.String())
	}
}

func TestEncodeNil(t *testing.T) {
	require.Nil(t, Encode(nil))
	require.Equal(t, sexp.List{sexp.Symbol("self")}, Encode(&Self{}))
}

func TestInspectAndCount(t *testing.T) {
	node, err := Parse(`[:op_asgn_or, [:lvar, :a], [:lasgn, :a, [:rescue, [:call, nil, :b, [:arglist]], [:resbody, [:array], [:call, nil, :c, [:arglist]]]]]]`)
	require.NoError(t, err)

	var kinds []Kind
	Inspect(node, func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return true
	})
	require.Equal(t, []Kind{
		KindOpAsgnOr, KindLvar, KindLasgn, KindRescue,
		KindCall, KindResBody, KindCall,
	}, kinds)
	require.Equal(t, 7, Count(node))
	require.Equal(t, 0, Count(nil))

	// Returning false prunes the subtree.
	visited := 0
	Inspect(node, func(n Node) bool {
		visited++
		return n.Kind() != KindLasgn
	})
	require.Equal(t, 3, visited)
}
