package entity

import "time"

// ChatSession is a durable named conversation. Id is the Unix-millisecond
// creation timestamp, which also makes ids unique in practice.
type ChatSession struct {
	Id          int64      `json:"id"`
	Title       string     `json:"title"`
	Messages    []ChatTurn `json:"messages"`
	LastUpdated time.Time  `json:"last_updated"`
}

// SessionCollection holds all saved sessions, newest first. It is persisted
// as a whole on every mutation; there is no partial persistence.
type SessionCollection []*ChatSession

// Find returns the session with the given id, or nil.
func (c SessionCollection) Find(id int64) *ChatSession {
	for _, s := range c {
		if s.Id == id {
			return s
		}
	}
	return nil
}

// Remove returns a copy of the collection without the given id.
func (c SessionCollection) Remove(id int64) SessionCollection {
	out := make(SessionCollection, 0, len(c))
	for _, s := range c {
		if s.Id != id {
			out = append(out, s)
		}
	}
	return out
}
