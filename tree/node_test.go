// Copyright (c) 2024, the clixon-core authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package tree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, xmlStr string) *Node {
	t.Helper()
	n, err := Decode(strings.NewReader(xmlStr))
	require.NoError(t, err)
	return n
}

func TestCloneIsIndependentCopy(t *testing.T) {
	src := mustDecode(t, `<cfg><a>1</a></cfg>`)
	dst := src.Clone()
	require.True(t, src.Equal(dst))

	dst.Children[0].Value = "mutated"
	require.False(t, src.Equal(dst))
	require.Equal(t, "1", src.Find("cfg").Find("a").Value)
}

func TestMergeIsIdempotent(t *testing.T) {
	base := mustDecode(t, `<cfg><a>1</a></cfg>`)
	patch := mustDecode(t, `<cfg><b>2</b></cfg>`)

	once, err := Apply(base.Clone(), patch, OpMerge)
	require.NoError(t, err)

	twice, err := Apply(once.Clone(), patch, OpMerge)
	require.NoError(t, err)

	require.True(t, once.Equal(twice))
}

func TestMergeOverlaysNodeByNode(t *testing.T) {
	running := mustDecode(t, `<cfg><a>1</a></cfg>`)
	candidate := mustDecode(t, `<cfg><b>2</b></cfg>`)

	merged, err := Apply(running, candidate, OpMerge)
	require.NoError(t, err)

	expected := mustDecode(t, `<cfg><a>1</a><b>2</b></cfg>`)
	require.True(t, expected.Equal(merged))
}

func TestReplaceSubstitutesWholesale(t *testing.T) {
	base := mustDecode(t, `<cfg><a>1</a><b>2</b></cfg>`)
	patch := mustDecode(t, `<cfg><c>3</c></cfg>`)

	replaced, err := Apply(base, patch, OpReplace)
	require.NoError(t, err)
	require.True(t, patch.Equal(replaced))
}

func TestDeleteFailsWhenAbsent(t *testing.T) {
	base := mustDecode(t, `<cfg><a>1</a></cfg>`)
	patch := mustDecode(t, `<cfg><missing></missing></cfg>`)

	_, err := Apply(base, patch, OpDelete)
	require.Error(t, err)
}

func TestRemoveIsSilentWhenAbsent(t *testing.T) {
	base := mustDecode(t, `<cfg><a>1</a></cfg>`)
	patch := mustDecode(t, `<cfg><missing></missing></cfg>`)

	out, err := Apply(base, patch, OpRemove)
	require.NoError(t, err)
	require.True(t, base.Equal(out))
}

func TestDiffComputesAddedDeletedChanged(t *testing.T) {
	running := mustDecode(t, `<cfg><a>1</a><b>2</b></cfg>`)
	source := mustDecode(t, `<cfg><a>9</a><c>3</c></cfg>`)

	d := Compute(running.Find("cfg"), source.Find("cfg"))
	require.Len(t, d.Added, 1)
	require.Equal(t, "c", d.Added[0].Name)
	require.Len(t, d.Deleted, 1)
	require.Equal(t, "b", d.Deleted[0].Name)
	require.Len(t, d.Changed, 1)
	require.Equal(t, "a", d.Changed[0].Name)
}

func TestEqualIgnoresContainerChildOrder(t *testing.T) {
	a := mustDecode(t, `<cfg><a>1</a><b>2</b></cfg>`)
	b := mustDecode(t, `<cfg><b>2</b><a>1</a></cfg>`)
	require.True(t, a.Equal(b))
}
