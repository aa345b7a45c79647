package core

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinYear       = 1
	MaxYear       = 9999
	DefaultCopies = 1
)

// Book is a catalog record. Year 0 means unknown. Image is a URL, a local path or an object key.
type Book struct {
	ID     BookID  `json:"id" db:"id" bson:"_id"`
	Title  string  `json:"title" db:"title" bson:"title"`
	Author string  `json:"author" db:"author" bson:"author"`
	Year   int     `json:"year" db:"year" bson:"year"`
	Image  *string `json:"image" db:"image" bson:"image,omitempty"`
	Copies int     `json:"copies" db:"copies" bson:"copies"`
}

// NewBook carries the fields of a book that is about to be added.
// Copies < 0 is invalid, callers that have no copy count use DefaultCopies.
type NewBook struct {
	Title  string
	Author string
	Year   int
	Image  *string
	Copies int
}

// BookPatch is a partial update: only non-nil fields change. An empty Image clears the image.
type BookPatch struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
	Year   *int    `json:"year,omitempty"`
	Image  *string `json:"image,omitempty"`
	Copies *int    `json:"copies,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p BookPatch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Year == nil && p.Image == nil && p.Copies == nil
}

// BuildNewBook trims and validates the input.
func BuildNewBook(title, author string, year int, image *string, copies int) (NewBook, error) {
	nb := NewBook{
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
		Year:   year,
		Image:  normalizeImage(image),
		Copies: copies,
	}

	if err := nb.Validate(); err != nil {
		return NewBook{}, err
	}

	return nb, nil
}

// Validate checks the invariants of a book record.
func (nb NewBook) Validate() error {
	return validateBookFields(nb.Title, nb.Author, nb.Year, nb.Copies)
}

// ToBook attaches an id.
func (nb NewBook) ToBook(id BookID) Book {
	return Book{
		ID:     id,
		Title:  nb.Title,
		Author: nb.Author,
		Year:   nb.Year,
		Image:  nb.Image,
		Copies: nb.Copies,
	}
}

// Apply returns a copy of b with the patch applied and validated.
func (b Book) Apply(patch BookPatch) (Book, error) {
	updated := b

	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
	}

	if patch.Author != nil {
		updated.Author = strings.TrimSpace(*patch.Author)
	}

	if patch.Year != nil {
		updated.Year = *patch.Year
	}

	if patch.Image != nil {
		updated.Image = normalizeImage(patch.Image)
	}

	if patch.Copies != nil {
		updated.Copies = *patch.Copies
	}

	if err := validateBookFields(updated.Title, updated.Author, updated.Year, updated.Copies); err != nil {
		return Book{}, err
	}

	return updated, nil
}

// Matches reports whether title or author contain filter, case-insensitively. An empty filter matches all.
func (b Book) Matches(filter string) bool {
	needle := strings.ToLower(strings.TrimSpace(filter))
	if needle == "" {
		return true
	}

	return strings.Contains(strings.ToLower(b.Title), needle) || strings.Contains(strings.ToLower(b.Author), needle)
}

// ImageRef returns the image reference or "".
func (b Book) ImageRef() string {
	if b.Image == nil {
		return ""
	}

	return *b.Image
}

// ParseYear normalizes textual year input. Empty input is 0 (unknown).
func ParseYear(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}

	year, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: year %q is not a number", ErrValidation, raw)
	}

	if year < MinYear || year > MaxYear {
		return 0, fmt.Errorf("%w: year %d out of range %d..%d", ErrValidation, year, MinYear, MaxYear)
	}

	return year, nil
}

func validateBookFields(title, author string, year int, copies int) error {
	if title == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	if author == "" {
		return fmt.Errorf("%w: author must not be empty", ErrValidation)
	}

	if year != 0 && (year < MinYear || year > MaxYear) {
		return fmt.Errorf("%w: year %d out of range %d..%d", ErrValidation, year, MinYear, MaxYear)
	}

	if copies < 0 {
		return fmt.Errorf("%w: copies must not be negative", ErrValidation)
	}

	return nil
}

func normalizeImage(image *string) *string {
	if image == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*image)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}
