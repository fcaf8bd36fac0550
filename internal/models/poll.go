package models

import (
	"errors"
	"strings"
)

var (
	ErrInvalidOption = errors.New("invalid option index")
	ErrInvalidPoll   = errors.New("poll must have a question and at least two options")
)

// MinPollOptions is the smallest number of options a poll may be created with
const MinPollOptions = 2

/** --------------------ENTITIES-------------------- */
// Poll is embedded in a poll message. Version is bumped on every persisted vote and is
// used by the store as a compare-and-swap guard.
type Poll struct {
	Question string       `bson:"question" json:"question"`
	Options  []PollOption `bson:"options" json:"options"`
	Version  int64        `bson:"version" json:"version"`
}

// PollOption holds the tally for one choice. Votes always equals len(VotedBy).
type PollOption struct {
	Text    string   `bson:"text" json:"text"`
	Votes   int      `bson:"votes" json:"votes"`
	VotedBy []string `bson:"votedBy" json:"votedBy"`
}

// NewPoll validates the question and options and returns an empty ledger
func NewPoll(question string, options []string) (*Poll, error) {
	question = strings.TrimSpace(question)
	if question == "" || len(options) < MinPollOptions {
		return nil, ErrInvalidPoll
	}

	poll := &Poll{Question: question, Options: make([]PollOption, 0, len(options))}
	for _, text := range options {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, ErrInvalidPoll
		}
		poll.Options = append(poll.Options, PollOption{Text: text, VotedBy: []string{}})
	}
	return poll, nil
}

// VotedOption returns the index of the option voterID currently has selected, or -1
func (p *Poll) VotedOption(voterID string) int {
	previous := -1
	for i := range p.Options {
		for _, id := range p.Options[i].VotedBy {
			if id == voterID {
				previous = i
			}
		}
	}
	return previous
}

// CastVote moves voterID's vote to optionIndex. A previous vote is always removed
// first, including when it is for the same option, so a re-vote is net zero.
// The index is validated before anything is touched.
func (p *Poll) CastVote(voterID string, optionIndex int) (previous int, err error) {
	if optionIndex < 0 || optionIndex >= len(p.Options) {
		return -1, ErrInvalidOption
	}

	previous = p.VotedOption(voterID)
	if previous != -1 {
		p.Options[previous].removeVoter(voterID)
	}

	opt := &p.Options[optionIndex]
	opt.VotedBy = append(opt.VotedBy, voterID)
	opt.Votes++
	return previous, nil
}

func (o *PollOption) removeVoter(voterID string) {
	kept := o.VotedBy[:0]
	for _, id := range o.VotedBy {
		if id != voterID {
			kept = append(kept, id)
		}
	}
	o.VotedBy = kept
	o.Votes--
}

// TotalVotes sums the option tallies
func (p *Poll) TotalVotes() int {
	total := 0
	for _, o := range p.Options {
		total += o.Votes
	}
	return total
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	c := &Poll{Question: p.Question, Version: p.Version, Options: make([]PollOption, len(p.Options))}
	for i, o := range p.Options {
		c.Options[i] = PollOption{Text: o.Text, Votes: o.Votes, VotedBy: append([]string{}, o.VotedBy...)}
	}
	return c
}

/** -------------------- DTOs -------------------- */
// Request
type CreatePollRequest struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required,min=2"`
}

type VoteRequest struct {
	MessageID   string `json:"messageId" binding:"required"`
	OptionIndex *int   `json:"optionIndex" binding:"required"`
}

// Response
type VoteResponse struct {
	Message string `json:"message"`
	Poll    *Poll  `json:"poll"`
}
