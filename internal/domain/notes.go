package domain

// NoteItem is a single study note. Href doubles as the note's identifier.
type NoteItem struct {
	Title string `json:"title" validate:"required"`
	Href  string `json:"href" validate:"required"`
}

// NoteSection groups notes under a heading, e.g. a subject and grade.
type NoteSection struct {
	Title string     `json:"title" validate:"required"`
	Items []NoteItem `json:"items" validate:"dive"`
}
