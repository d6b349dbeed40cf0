// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package questions

import (
	"errors"
	"fmt"
)

var ErrUnknownSet = errors.New("unknown question set")

// Question is one prompt in a workshop question set, together with the
// scale metadata the scoring engine validates and classifies against.
type Question struct {
	Prompt  string `json:"prompt"`
	Scale   string `json:"scale"` // models.ScaleBalance or models.ScaleMaximal
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Optimal *int   `json:"optimal,omitempty"` // balance scales only
}

// QuestionSet is an ordered, immutable list of questions.
type QuestionSet struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// Len returns the number of questions in the set.
func (qs QuestionSet) Len() int { return len(qs.Questions) }

// Question returns the question at index, or an error when the index is
// outside [0, N).
func (qs QuestionSet) Question(index int) (Question, error) {
	if index < 0 || index >= len(qs.Questions) {
		return Question{}, fmt.Errorf("question index %d out of range [0, %d)", index, len(qs.Questions))
	}
	return qs.Questions[index], nil
}

// InBounds reports whether a submitted value lies within the question's
// configured scale bounds.
func (q Question) InBounds(value int) bool {
	return value >= q.Min && value <= q.Max
}

// DefaultSetID is used when session creation does not name a set.
const DefaultSetID = "team-health"

func optimal(v int) *int { return &v }

var sets = map[string]QuestionSet{
	"team-health": {
		ID:   "team-health",
		Name: "Team Health Check",
		Questions: []Question{
			{Prompt: "Our mission and goals are clear to everyone", Scale: "maximal", Min: 0, Max: 10},
			{Prompt: "Current workload", Scale: "balance", Min: -5, Max: 5, Optimal: optimal(0)},
			{Prompt: "We deliver value our users care about", Scale: "maximal", Min: 0, Max: 10},
			{Prompt: "Level of challenge in my daily work", Scale: "balance", Min: -5, Max: 5, Optimal: optimal(0)},
			{Prompt: "We get the support we need from the wider organisation", Scale: "maximal", Min: 0, Max: 10},
			{Prompt: "Amount of time we spend in meetings", Scale: "balance", Min: -5, Max: 5, Optimal: optimal(0)},
			{Prompt: "I enjoy working with this team", Scale: "maximal", Min: 0, Max: 10},
			{Prompt: "We learn from mistakes instead of assigning blame", Scale: "maximal", Min: 0, Max: 10},
		},
	},
	"retro-pulse": {
		ID:   "retro-pulse",
		Name: "Retro Pulse",
		Questions: []Question{
			{Prompt: "How did the last iteration go", Scale: "maximal", Min: 0, Max: 10},
			{Prompt: "Pace of the last iteration", Scale: "balance", Min: -5, Max: 5, Optimal: optimal(0)},
			{Prompt: "I would recommend this team to a friend", Scale: "maximal", Min: 0, Max: 10},
		},
	},
}

// Lookup returns the question set with the given ID, or ErrUnknownSet.
func Lookup(id string) (QuestionSet, error) {
	set, ok := sets[id]
	if !ok {
		return QuestionSet{}, fmt.Errorf("%w: %s", ErrUnknownSet, id)
	}
	return set, nil
}
