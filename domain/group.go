package domain

import "slices"

type GroupID string

// Group is a durable, named set of member usernames.
// A group always holds at least its creator and is never deleted.
type Group struct {
	ID      GroupID
	Name    string
	Members []string
}

func NewGroup(id GroupID, name, creator string) Group {
	return Group{ID: id, Name: name, Members: []string{creator}}
}

func (g Group) HasMember(username string) bool {
	return slices.Contains(g.Members, username)
}

// WithMember returns the group with username added, as a set union.
// Adding an existing member yields the group unchanged.
func (g Group) WithMember(username string) Group {
	if g.HasMember(username) {
		return g
	}
	members := make([]string, 0, len(g.Members)+1)
	members = append(members, g.Members...)
	members = append(members, username)
	g.Members = members
	return g
}
