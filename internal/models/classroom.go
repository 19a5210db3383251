package models

// Classroom is a physical room with a seating capacity and optional type tag.
type Classroom struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Capacity int     `db:"capacity" json:"capacity"`
	RoomType *string `db:"room_type" json:"room_type,omitempty"`
}

// Accepts reports whether the room satisfies a course's room-type requirement.
// A course without a requirement accepts any room.
func (r Classroom) Accepts(required *string) bool {
	if required == nil || *required == "" {
		return true
	}
	return r.RoomType != nil && *r.RoomType == *required
}
