package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-ledger-go/library/core"
)

func Test_BuildNewBook_TrimsAndKeepsFields(t *testing.T) {
	// arrange
	image := "  https://covers.example/hobbit.jpg "

	// act
	nb, err := core.BuildNewBook("  The Hobbit ", " J.R.R. Tolkien", 1937, &image, 2)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit", nb.Title)
	assert.Equal(t, "J.R.R. Tolkien", nb.Author)
	assert.Equal(t, 1937, nb.Year)
	require.NotNil(t, nb.Image)
	assert.Equal(t, "https://covers.example/hobbit.jpg", *nb.Image)
	assert.Equal(t, 2, nb.Copies)
}

func Test_BuildNewBook_When_Invalid(t *testing.T) {
	testCases := []struct {
		name   string
		title  string
		author string
		year   int
		copies int
	}{
		{name: "empty title", title: "  ", author: "Frank Herbert", year: 1965, copies: 1},
		{name: "empty author", title: "Dune", author: "", year: 1965, copies: 1},
		{name: "year too large", title: "Dune", author: "Frank Herbert", year: 10000, copies: 1},
		{name: "negative year", title: "Dune", author: "Frank Herbert", year: -5, copies: 1},
		{name: "negative copies", title: "Dune", author: "Frank Herbert", year: 1965, copies: -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := core.BuildNewBook(tc.title, tc.author, tc.year, nil, tc.copies)

			// assert
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func Test_BuildNewBook_When_ImageIsBlank_ItIsDropped(t *testing.T) {
	// arrange
	blank := "   "

	// act
	nb, err := core.BuildNewBook("Dune", "Frank Herbert", 0, &blank, 1)

	// assert
	require.NoError(t, err)
	assert.Nil(t, nb.Image)
}

func Test_Book_Apply_OnlyChangesPatchedFields(t *testing.T) {
	// arrange
	image := "dune.jpg"
	book := core.Book{ID: 3, Title: "Dune", Author: "Frank Herbert", Year: 1965, Image: &image, Copies: 2}
	newTitle := "Dune Messiah"

	// act
	updated, err := book.Apply(core.BookPatch{Title: &newTitle})

	// assert
	require.NoError(t, err)
	assert.Equal(t, core.Book{ID: 3, Title: "Dune Messiah", Author: "Frank Herbert", Year: 1965, Image: &image, Copies: 2}, updated)
	assert.Equal(t, "Dune", book.Title, "the original must not change")
}

func Test_Book_Apply_When_ImageIsEmpty_ItIsCleared(t *testing.T) {
	// arrange
	image := "dune.jpg"
	book := core.Book{ID: 3, Title: "Dune", Author: "Frank Herbert", Image: &image, Copies: 1}
	empty := ""

	// act
	updated, err := book.Apply(core.BookPatch{Image: &empty})

	// assert
	require.NoError(t, err)
	assert.Nil(t, updated.Image)
}

func Test_Book_Apply_When_PatchIsInvalid(t *testing.T) {
	// arrange
	book := core.Book{ID: 3, Title: "Dune", Author: "Frank Herbert", Copies: 1}
	empty := " "

	// act
	_, err := book.Apply(core.BookPatch{Author: &empty})

	// assert
	assert.ErrorIs(t, err, core.ErrValidation)
}

func Test_Book_Matches(t *testing.T) {
	// arrange
	hobbit := core.Book{Title: "The Hobbit", Author: "J.R.R. Tolkien"}
	dune := core.Book{Title: "Dune", Author: "Frank Herbert"}

	// act + assert
	assert.True(t, hobbit.Matches("tolkien"))
	assert.False(t, dune.Matches("tolkien"))
	assert.True(t, dune.Matches("DUN"))
	assert.True(t, dune.Matches(""))
}

func Test_ParseYear(t *testing.T) {
	testCases := []struct {
		raw      string
		expected int
		invalid  bool
	}{
		{raw: "1937", expected: 1937},
		{raw: " 2001 ", expected: 2001},
		{raw: "", expected: 0},
		{raw: "nineteen", invalid: true},
		{raw: "0", invalid: true},
		{raw: "12345", invalid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			// act
			year, err := core.ParseYear(tc.raw)

			// assert
			if tc.invalid {
				assert.ErrorIs(t, err, core.ErrValidation)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.expected, year)
		})
	}
}

func Test_ParseRole(t *testing.T) {
	// act
	reader, readerErr := core.ParseRole("")
	librarian, librarianErr := core.ParseRole("Librarian")
	_, unknownErr := core.ParseRole("janitor")

	// assert
	assert.NoError(t, readerErr)
	assert.Equal(t, core.RoleReader, reader)
	assert.NoError(t, librarianErr)
	assert.Equal(t, core.RoleLibrarian, librarian)
	assert.True(t, librarian.CanManageCatalog())
	assert.False(t, reader.CanManageCatalog())
	assert.ErrorIs(t, unknownErr, core.ErrValidation)
}
