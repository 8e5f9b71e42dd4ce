package linker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComdatGroupClaimPrefersLowerPriority(t *testing.T) {
	g := &ComdatGroup{}

	late := &ObjectFile{InputFile: InputFile{Priority: 5}}
	early := &ObjectFile{InputFile: InputFile{Priority: 1}}

	require.True(t, g.Claim(late))
	require.Equal(t, late, g.Owner)

	require.True(t, g.Claim(early))
	require.Equal(t, early, g.Owner)

	// A later, higher-priority claimant must not retake ownership.
	require.False(t, g.Claim(late))
	require.Equal(t, early, g.Owner)
}

func TestResolveComdatGroupsDropsLoserMemberSections(t *testing.T) {
	ctx := NewContext()
	group := InsertComdatGroup(ctx, "_ZTV1S")

	winner := &ObjectFile{InputFile: InputFile{Priority: 1}}
	loser := &ObjectFile{InputFile: InputFile{Priority: 2}}

	winnerSec := &InputSection{IsAlive: true}
	loserSec := &InputSection{IsAlive: true}
	winner.Sections = []*InputSection{nil, winnerSec}
	loser.Sections = []*InputSection{nil, loserSec}

	winner.Comdats = []ObjectComdat{{Group: group, Members: []uint32{1}}}
	loser.Comdats = []ObjectComdat{{Group: group, Members: []uint32{1}}}

	ctx.Objs = []*ObjectFile{winner, loser}

	ResolveComdatGroups(ctx)

	require.True(t, winnerSec.IsAlive)
	require.False(t, loserSec.IsAlive)
}
