package entities

import (
	"time"
)

const (
	// TemporaryCollectionID is the id of the unsaved collection of the current session.
	TemporaryCollectionID = "temp_session"
	// TemporaryCollectionName is shown for the temporary collection.
	TemporaryCollectionName = "当前会话错题"

	dateLayout = "2006-01-02 15:04"
)

// ErrorCollection is a named group of previously missed questions.
type ErrorCollection struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Timestamp   int64      `json:"timestamp"`   // creation time, unix milliseconds
	DateCreated string     `json:"dateCreated"` // creation time formatted for display
	Questions   []Question `json:"questions"`
	IsTemporary bool       `json:"isTemporary,omitempty"`
}

// NewErrorCollection creates a permanent collection. An empty name defaults to the creation date.
func NewErrorCollection(id, name string, createdAt time.Time, questions []Question) *ErrorCollection {
	date := FormatDate(createdAt)
	if name == "" {
		name = date
	}

	snapshots := make([]Question, 0, len(questions))
	for i := range questions {
		snapshots = append(snapshots, questions[i].Snapshot())
	}

	return &ErrorCollection{
		ID:          id,
		Name:        name,
		Timestamp:   createdAt.UnixMilli(),
		DateCreated: date,
		Questions:   snapshots,
	}
}

// NewTemporaryCollection creates the empty collection that accumulates session misses.
func NewTemporaryCollection(createdAt time.Time) *ErrorCollection {
	return &ErrorCollection{
		ID:          TemporaryCollectionID,
		Name:        TemporaryCollectionName,
		Timestamp:   createdAt.UnixMilli(),
		DateCreated: FormatDate(createdAt),
		Questions:   []Question{},
		IsTemporary: true,
	}
}

// CreatedAt returns the creation time.
func (c *ErrorCollection) CreatedAt() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// IndexOf returns the position of the question matching q by (title, answer), or -1.
func (c *ErrorCollection) IndexOf(q *Question) int {
	for i := range c.Questions {
		if c.Questions[i].SameAs(q) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the collection.
func (c *ErrorCollection) Clone() ErrorCollection {
	out := *c
	out.Questions = CloneQuestions(c.Questions)
	if out.Questions == nil {
		out.Questions = []Question{}
	}
	return out
}

// FormatDate formats t the way collection names and dates are displayed.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
