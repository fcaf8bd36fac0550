package models

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPoll(t *testing.T, options ...string) *Poll {
	t.Helper()
	poll, err := NewPoll("Lunch?", options)
	require.NoError(t, err)
	return poll
}

// assertLedgerInvariants checks count == |voters| per option and one option per voter
func assertLedgerInvariants(t *testing.T, p *Poll) {
	t.Helper()
	seen := make(map[string]int)
	for i, o := range p.Options {
		assert.Equal(t, len(o.VotedBy), o.Votes, "option %d count must match voter set", i)
		for _, v := range o.VotedBy {
			prev, dup := seen[v]
			assert.False(t, dup, "voter %s in options %d and %d", v, prev, i)
			seen[v] = i
		}
	}
	assert.Equal(t, len(seen), p.TotalVotes())
}

func TestNewPoll(t *testing.T) {
	tests := []struct {
		name     string
		question string
		options  []string
		wantErr  bool
	}{
		{"two options", "Q", []string{"A", "B"}, false},
		{"many options", "Q", []string{"A", "B", "C", "D"}, false},
		{"one option", "Q", []string{"A"}, true},
		{"no options", "Q", nil, true},
		{"blank question", "   ", []string{"A", "B"}, true},
		{"blank option", "Q", []string{"A", " "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poll, err := NewPoll(tt.question, tt.options)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPoll)
				return
			}
			require.NoError(t, err)
			assert.Len(t, poll.Options, len(tt.options))
			for _, o := range poll.Options {
				assert.Zero(t, o.Votes)
				assert.NotNil(t, o.VotedBy)
			}
		})
	}
}

func TestCastVoteScenario(t *testing.T) {
	poll := newTestPoll(t, "A", "B")

	_, err := poll.CastVote("u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, poll.Options[0].Votes)
	assert.Equal(t, []string{"u1"}, poll.Options[0].VotedBy)
	assert.Equal(t, 0, poll.Options[1].Votes)

	prev, err := poll.CastVote("u1", 1)
	require.NoError(t, err)
	assert.Equal(t, 0, prev)
	assert.Equal(t, 0, poll.Options[0].Votes)
	assert.Empty(t, poll.Options[0].VotedBy)
	assert.Equal(t, 1, poll.Options[1].Votes)
	assert.Equal(t, []string{"u1"}, poll.Options[1].VotedBy)

	prev, err = poll.CastVote("u2", 1)
	require.NoError(t, err)
	assert.Equal(t, -1, prev)
	assert.Equal(t, 0, poll.Options[0].Votes)
	assert.Equal(t, 2, poll.Options[1].Votes)
	assert.Equal(t, []string{"u1", "u2"}, poll.Options[1].VotedBy)

	assertLedgerInvariants(t, poll)
}

func TestCastVoteSameOptionIsNetZero(t *testing.T) {
	poll := newTestPoll(t, "A", "B", "C")
	_, err := poll.CastVote("u1", 2)
	require.NoError(t, err)
	_, err = poll.CastVote("u2", 2)
	require.NoError(t, err)
	after := poll.Clone()

	prev, err := poll.CastVote("u1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, prev)
	assert.Equal(t, after.Options[2].Votes, poll.Options[2].Votes)
	assert.ElementsMatch(t, after.Options[2].VotedBy, poll.Options[2].VotedBy)
	assertLedgerInvariants(t, poll)
}

func TestCastVoteMovesBetweenOptions(t *testing.T) {
	poll := newTestPoll(t, "A", "B")
	_, _ = poll.CastVote("u1", 0)
	_, _ = poll.CastVote("u2", 0)
	beforeA, beforeB := poll.Options[0].Votes, poll.Options[1].Votes

	_, err := poll.CastVote("u1", 1)
	require.NoError(t, err)
	assert.Equal(t, beforeA-1, poll.Options[0].Votes)
	assert.Equal(t, beforeB+1, poll.Options[1].Votes)
	assert.NotContains(t, poll.Options[0].VotedBy, "u1")
	assert.Contains(t, poll.Options[1].VotedBy, "u1")
}

func TestCastVoteInvalidOptionDoesNotMutate(t *testing.T) {
	poll := newTestPoll(t, "A", "B")
	_, _ = poll.CastVote("u1", 0)
	before := poll.Clone()

	for _, idx := range []int{-1, 2, 100} {
		_, err := poll.CastVote("u1", idx)
		assert.ErrorIs(t, err, ErrInvalidOption)
	}
	assert.Equal(t, before, poll)
}

func TestCastVoteRandomSequenceKeepsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	poll := newTestPoll(t, "A", "B", "C", "D")
	voters := make(map[string]bool)

	for i := 0; i < 500; i++ {
		voter := fmt.Sprintf("u%d", rng.Intn(20))
		idx := rng.Intn(len(poll.Options)+2) - 1
		if _, err := poll.CastVote(voter, idx); err == nil {
			voters[voter] = true
		}
	}

	assertLedgerInvariants(t, poll)
	assert.Equal(t, len(voters), poll.TotalVotes())
}

func TestPollClone(t *testing.T) {
	poll := newTestPoll(t, "A", "B")
	_, _ = poll.CastVote("u1", 0)

	clone := poll.Clone()
	_, _ = clone.CastVote("u2", 0)

	assert.Equal(t, 1, poll.Options[0].Votes)
	assert.Equal(t, 2, clone.Options[0].Votes)
	assert.Nil(t, (*Poll)(nil).Clone())
}
