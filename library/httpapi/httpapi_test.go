package httpapi_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AntonStoeckl/library-ledger-go/library"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/availablecopies"
	"github.com/AntonStoeckl/library-ledger-go/library/httpapi"
	"github.com/AntonStoeckl/library-ledger-go/library/shell/config"
	"github.com/AntonStoeckl/library-ledger-go/library/users"
)

const testSecret = "a-test-secret-of-enough-bytes"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type fixture struct {
	lib     *library.Library
	handler http.Handler
	now     time.Time
}

func Test_Health(t *testing.T) {
	// setup
	f := givenFixture(t, false)

	// act
	rec := f.do(t, http.MethodGet, "/health", "", nil)

	// assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func Test_RegisterAndLogin(t *testing.T) {
	// setup
	f := givenFixture(t, false)

	// act
	registered := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "carol", "password": "pw"})
	login := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "carol", "password": "pw"})

	// assert
	require.Equal(t, http.StatusCreated, registered.Code)
	assert.NotContains(t, registered.Body.String(), "password")
	require.Equal(t, http.StatusOK, login.Code)
	var body struct {
		Token string    `json:"token"`
		Role  core.Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, core.RoleReader, body.Role)
}

func Test_Register_When_UsernameIsTaken(t *testing.T) {
	// setup
	f := givenFixture(t, false)

	// act
	rec := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "reader", "password": "pw"})

	// assert
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func Test_Register_When_ElevatedRoleIsRequestedAnonymously(t *testing.T) {
	// setup
	f := givenFixture(t, false)

	// act
	anonymous := f.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "dave", "password": "pw", "role": "librarian"})
	byLibrarian := f.do(t, http.MethodPost, "/api/auth/register", f.token(t, "librarian"), map[string]string{"username": "erin", "password": "pw", "role": "librarian"})

	// assert
	assert.Equal(t, http.StatusForbidden, anonymous.Code)
	assert.Equal(t, http.StatusCreated, byLibrarian.Code)
}

func Test_Login_When_PasswordIsWrong(t *testing.T) {
	// setup
	f := givenFixture(t, false)

	// act
	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "reader", "password": "wrong"})

	// assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_AddBook_RequiresLibrarian(t *testing.T) {
	// setup
	f := givenFixture(t, false)
	book := map[string]any{"title": "Dune", "author": "Frank Herbert", "year": "1965", "copies": 2}

	// act
	anonymous := f.do(t, http.MethodPost, "/api/books", "", book)
	reader := f.do(t, http.MethodPost, "/api/books", f.token(t, "reader"), book)
	librarian := f.do(t, http.MethodPost, "/api/books", f.token(t, "librarian"), book)

	// assert
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)
	assert.Equal(t, http.StatusForbidden, reader.Code)
	require.Equal(t, http.StatusCreated, librarian.Code)
	var created struct {
		ID core.BookID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(librarian.Body.Bytes(), &created))
	got, err := f.lib.Catalog.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1965, got.Year)
	assert.Equal(t, 2, got.Copies)
}

func Test_AddBook_When_RequestIsInvalid(t *testing.T) {
	// setup
	f := givenFixture(t, false)
	token := f.token(t, "librarian")

	// act
	missingTitle := f.do(t, http.MethodPost, "/api/books", token, map[string]any{"author": "Nobody"})
	badYear := f.do(t, http.MethodPost, "/api/books", token, map[string]any{"title": "T", "author": "A", "year": "soon"})

	// assert
	assert.Equal(t, http.StatusBadRequest, missingTitle.Code)
	assert.Equal(t, http.StatusBadRequest, badYear.Code)
}

func Test_ListAndGetBooks(t *testing.T) {
	// setup
	f := givenFixture(t, false)
	hobbit := f.givenBook(t, "The Hobbit", "J.R.R. Tolkien", 1)
	f.givenBook(t, "Dune", "Frank Herbert", 1)

	// act
	filtered := f.do(t, http.MethodGet, "/api/books?q=tolkien", "", nil)
	one := f.do(t, http.MethodGet, "/api/books/"+itoa(hobbit), "", nil)
	unknown := f.do(t, http.MethodGet, "/api/books/4711", "", nil)
	notANumber := f.do(t, http.MethodGet, "/api/books/abc", "", nil)

	// assert
	require.Equal(t, http.StatusOK, filtered.Code)
	var books []core.Book
	require.NoError(t, json.Unmarshal(filtered.Body.Bytes(), &books))
	require.Len(t, books, 1)
	assert.Equal(t, hobbit, books[0].ID)
	assert.Equal(t, http.StatusOK, one.Code)
	assert.Equal(t, http.StatusNotFound, unknown.Code)
	assert.Contains(t, unknown.Body.String(), `"error"`)
	assert.Equal(t, http.StatusNotFound, notANumber.Code)
}

func Test_UpdateAndDeleteBook(t *testing.T) {
	// setup
	f := givenFixture(t, false)
	token := f.token(t, "librarian")
	id := f.givenBook(t, "Dune", "Frank Herbert", 1)

	// act
	updated := f.do(t, http.MethodPatch, "/api/books/"+itoa(id), token, map[string]any{"title": "Dune Messiah", "year": 1969})
	invalid := f.do(t, http.MethodPatch, "/api/books/"+itoa(id), token, map[string]any{"copies": -1})
	deleted := f.do(t, http.MethodDelete, "/api/books/"+itoa(id), token, nil)
	deletedAgain := f.do(t, http.MethodDelete, "/api/books/"+itoa(id), token, nil)

	// assert
	require.Equal(t, http.StatusOK, updated.Code)
	var book core.Book
	require.NoError(t, json.Unmarshal(updated.Body.Bytes(), &book))
	assert.Equal(t, "Dune Messiah", book.Title)
	assert.Equal(t, 1969, book.Year)
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
	assert.Equal(t, http.StatusNoContent, deleted.Code)
	assert.Equal(t, http.StatusNotFound, deletedAgain.Code)
}

func Test_BorrowAndReturn(t *testing.T) {
	// setup
	f := givenFixture(t, false)
	token := f.token(t, "reader")
	id := f.givenBook(t, "Dune", "Frank Herbert", 2)

	// act
	borrowed := f.do(t, http.MethodPost, "/api/books/"+itoa(id)+"/borrow", token, nil)
	holding := f.do(t, http.MethodGet, "/api/me/borrowed", token, nil)
	returned := f.do(t, http.MethodPost, "/api/books/"+itoa(id)+"/return", token, nil)
	history := f.do(t, http.MethodGet, "/api/me/history", token, nil)

	// assert
	require.Equal(t, http.StatusOK, borrowed.Code)
	var availability availablecopies.Availability
	require.NoError(t, json.Unmarshal(borrowed.Body.Bytes(), &availability))
	assert.Equal(t, 1, availability.Available)
	assert.Equal(t, []core.UsernameString{"reader"}, availability.Holders)

	require.Equal(t, http.StatusOK, holding.Code)
	assert.Contains(t, holding.Body.String(), `"count":1`)
	assert.Contains(t, holding.Body.String(), `"title":"Dune"`)

	assert.Equal(t, http.StatusOK, returned.Code)

	require.Equal(t, http.StatusOK, history.Code)
	var entries struct {
		Entries []core.BorrowEvent `json:"entries"`
		Count   int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(history.Body.Bytes(), &entries))
	require.Equal(t, 2, entries.Count)
	assert.Equal(t, core.ActionBorrowed, entries.Entries[0].Action)
	assert.Equal(t, core.ActionReturned, entries.Entries[1].Action)
}

func Test_Borrow_When_NoCopyIsLeft_InStrictMode(t *testing.T) {
	// setup
	f := givenFixture(t, true)
	id := f.givenBook(t, "Dune", "Frank Herbert", 1)

	// arrange
	first := f.do(t, http.MethodPost, "/api/books/"+itoa(id)+"/borrow", f.token(t, "librarian"), nil)
	require.Equal(t, http.StatusOK, first.Code)

	// act
	rec := f.do(t, http.MethodPost, "/api/books/"+itoa(id)+"/borrow", f.token(t, "reader"), nil)

	// assert
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func Test_Borrow_When_TokenHasExpired(t *testing.T) {
	// setup
	f := givenFixture(t, false)
	id := f.givenBook(t, "Dune", "Frank Herbert", 1)
	token := f.token(t, "reader")

	// arrange
	expired := givenHandler(t, f.lib, f.now.Add(48*time.Hour))

	// act
	rec := doWith(t, expired, http.MethodPost, "/api/books/"+itoa(id)+"/borrow", token, nil)
	forged := f.do(t, http.MethodGet, "/api/me/borrowed", "Bearer not-a-token", nil)

	// assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, forged.Code)
}

func Test_Ledger_IsForLibrariansOnly(t *testing.T) {
	// setup
	f := givenFixture(t, false)
	id := f.givenBook(t, "Dune", "Frank Herbert", 3)

	// arrange
	require.NoError(t, f.lib.Ledger.RecordBorrow(context.Background(), "reader", id))
	require.NoError(t, f.lib.Ledger.RecordBorrow(context.Background(), "librarian", id))

	// act
	all := f.do(t, http.MethodGet, "/api/ledger", f.token(t, "librarian"), nil)
	one := f.do(t, http.MethodGet, "/api/ledger?username=reader", f.token(t, "librarian"), nil)
	denied := f.do(t, http.MethodGet, "/api/ledger", f.token(t, "reader"), nil)
	userList := f.do(t, http.MethodGet, "/api/users", f.token(t, "librarian"), nil)

	// assert
	assert.Contains(t, all.Body.String(), `"count":2`)
	assert.Contains(t, one.Body.String(), `"count":1`)
	assert.Equal(t, http.StatusForbidden, denied.Code)
	require.Equal(t, http.StatusOK, userList.Code)
	assert.NotContains(t, userList.Body.String(), "password")
}

func Test_UploadAndDownloadImage(t *testing.T) {
	// setup
	f := givenFixture(t, false)
	id := f.givenBook(t, "Dune", "Frank Herbert", 1)
	png := []byte("\x89PNG\r\n\x1a\nnot-really-a-png")

	// arrange
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="cover.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/books/"+itoa(id)+"/image", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", f.token(t, "librarian"))

	// act
	upload := httptest.NewRecorder()
	f.handler.ServeHTTP(upload, req)
	download := f.do(t, http.MethodGet, "/api/books/"+itoa(id)+"/image", "", nil)

	// assert
	require.Equal(t, http.StatusOK, upload.Code, upload.Body.String())
	var book core.Book
	require.NoError(t, json.Unmarshal(upload.Body.Bytes(), &book))
	require.NotNil(t, book.Image)
	assert.True(t, strings.HasPrefix(*book.Image, "covers/"))
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, "image/png", download.Header().Get("Content-Type"))
	assert.Equal(t, png, download.Body.Bytes())
}

func Test_GetImage_When_BookHasNone(t *testing.T) {
	// setup
	f := givenFixture(t, false)
	id := f.givenBook(t, "Dune", "Frank Herbert", 1)

	// act
	rec := f.do(t, http.MethodGet, "/api/books/"+itoa(id)+"/image", "", nil)

	// assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_NewServer_When_SecretIsWeak(t *testing.T) {
	// setup
	f := givenFixture(t, false)

	// act
	_, err := httpapi.NewServer(f.lib, "short")

	// assert
	assert.ErrorIs(t, err, httpapi.ErrWeakSecret)
}

func givenFixture(t *testing.T, strict bool) *fixture {
	t.Helper()

	ctx := context.Background()
	dir := t.TempDir()

	lib, err := library.Open(ctx, config.Config{
		DataDir:            dir,
		BooksFile:          filepath.Join(dir, "books.json"),
		UsersFile:          filepath.Join(dir, "users.json"),
		LedgerFile:         filepath.Join(dir, "ledger.json"),
		CatalogBackend:     config.BackendJSON,
		LedgerBackend:      config.BackendJSON,
		StrictAvailability: strict,
		DefaultCopies:      1,
		BcryptCost:         bcrypt.MinCost,
		ImageBackend:       config.BackendLocal,
		ImageDir:           filepath.Join(dir, "images"),
		MaxUploadMB:        1,
	}, nil)
	require.NoError(t, err, "error in arranging test data")
	t.Cleanup(func() { _ = lib.Close(ctx) })

	for _, reg := range []users.Registration{
		{Username: "librarian", Password: "librarian-pw", Role: string(core.RoleLibrarian)},
		{Username: "reader", Password: "reader-pw"},
	} {
		_, err = lib.Users.Register(ctx, reg)
		require.NoError(t, err, "error in arranging test data")
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	return &fixture{lib: lib, handler: givenHandler(t, lib, now), now: now}
}

func givenHandler(t *testing.T, lib *library.Library, now time.Time) http.Handler {
	t.Helper()

	srv, err := httpapi.NewServer(
		lib,
		testSecret,
		httpapi.WithTokenTTL(time.Hour),
		httpapi.WithMaxUploadBytes(1<<20),
		httpapi.WithClock(func() time.Time { return now }),
		httpapi.WithRequestLogging(false),
	)
	require.NoError(t, err, "error in arranging test data")

	return srv.Router()
}

func (f *fixture) givenBook(t *testing.T, title, author string, copies int) core.BookID {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/books", f.token(t, "librarian"), map[string]any{"title": title, "author": author, "copies": copies})
	require.Equal(t, http.StatusCreated, rec.Code, "error in arranging test data")

	var created struct {
		ID core.BookID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	return created.ID
}

// token logs in with the fixture password of username and returns the Authorization header value.
func (f *fixture) token(t *testing.T, username string) string {
	t.Helper()

	rec := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": username + "-pw"})
	require.Equal(t, http.StatusOK, rec.Code, "error in arranging test data")

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return "Bearer " + body.Token
}

func (f *fixture) do(t *testing.T, method, path, authorization string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return doWith(t, f.handler, method, path, authorization, body)
}

func doWith(t *testing.T, handler http.Handler, method, path, authorization string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func itoa(id core.BookID) string {
	return strconv.Itoa(id)
}
