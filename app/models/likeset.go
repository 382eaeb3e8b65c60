package models

import (
	"encoding/json"
	"slices"
)

// LikeSet is the set of subject ids that currently like a post or comment.
// It encodes as a sorted JSON array.
type LikeSet map[string]struct{}

// NewLikeSet creates a set holding ids.
func NewLikeSet(ids ...string) LikeSet {
	s := make(LikeSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s LikeSet) Add(id string) {
	s[id] = struct{}{}
}

func (s LikeSet) Remove(id string) {
	delete(s, id)
}

func (s LikeSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Toggle removes id when present and adds it otherwise. It reports whether
// id is a member afterwards.
func (s LikeSet) Toggle(id string) bool {
	if s.Contains(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

func (s LikeSet) Len() int {
	return len(s)
}

// Members returns the ids in sorted order.
func (s LikeSet) Members() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s LikeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Members())
}

func (s *LikeSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewLikeSet(ids...)
	return nil
}
