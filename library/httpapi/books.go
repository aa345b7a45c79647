package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AntonStoeckl/library-ledger-go/library/catalog"
	"github.com/AntonStoeckl/library-ledger-go/library/core"
	"github.com/AntonStoeckl/library-ledger-go/library/imagestore"
)

const (
	imageFormField = "image"

	logMsgOldImageNotDeleted = "old cover image not deleted"
	logAttrImage             = "image"
)

// yearField accepts a JSON number, a numeric string or an empty string (unknown year).
type yearField int

func (y *yearField) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*y = 0
		return nil
	}

	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}

	year, err := core.ParseYear(raw)
	if err != nil {
		return err
	}

	*y = yearField(year)

	return nil
}

type addBookRequest struct {
	Title  string    `json:"title"`
	Author string    `json:"author"`
	Year   yearField `json:"year"`
	Image  *string   `json:"image"`
	Copies *int      `json:"copies"`
}

type updateBookRequest struct {
	Title  *string    `json:"title"`
	Author *string    `json:"author"`
	Year   *yearField `json:"year"`
	Image  *string    `json:"image"`
	Copies *int       `json:"copies"`
}

func (req updateBookRequest) patch() core.BookPatch {
	patch := core.BookPatch{Title: req.Title, Author: req.Author, Image: req.Image, Copies: req.Copies}

	if req.Year != nil {
		year := int(*req.Year)
		patch.Year = &year
	}

	return patch
}

type addBookResponse struct {
	ID core.BookID `json:"id"`
}

func bookIDParam(r *http.Request) (core.BookID, error) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: book %q", core.ErrNotFound, raw)
	}

	return id, nil
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.lib.Catalog.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if books == nil {
		books = []core.Book{}
	}

	writeJSON(w, http.StatusOK, books)
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := bookIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	book, err := s.lib.Catalog.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (s *Server) addBook(w http.ResponseWriter, r *http.Request) {
	var req addBookRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	id, err := s.lib.Catalog.Add(r.Context(), catalog.AddRequest{
		Title:  req.Title,
		Author: req.Author,
		Year:   int(req.Year),
		Image:  req.Image,
		Copies: req.Copies,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/books/"+strconv.Itoa(id))
	writeJSON(w, http.StatusCreated, addBookResponse{ID: id})
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	id, err := bookIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req updateBookRequest
	if err = decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	book, err := s.lib.Catalog.Update(r.Context(), id, req.patch())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, book)
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := bookIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err = s.lib.Catalog.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadImage stores a multipart "image" file as the new cover and replaces the book's image reference.
func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := bookIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	book, err := s.lib.Catalog.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err = r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile(imageFormField)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "missing image file")
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "failed to read image file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(body)
	}

	ref, err := s.lib.Images.Put(r.Context(), contentType, bytes.NewReader(body))
	if err != nil {
		s.writeError(w, err)
		return
	}

	updated, err := s.lib.Catalog.Update(r.Context(), id, core.BookPatch{Image: &ref})
	if err != nil {
		_ = s.lib.Images.Delete(r.Context(), ref)
		s.writeError(w, err)

		return
	}

	s.deleteOldImage(r, book.ImageRef())

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteOldImage(r *http.Request, ref string) {
	if ref == "" {
		return
	}

	err := s.lib.Images.Delete(r.Context(), ref)
	if err == nil || errors.Is(err, imagestore.ErrInvalidReference) {
		return
	}

	if s.logger != nil {
		s.logger.Warn(logMsgOldImageNotDeleted, logAttrImage, ref, logAttrError, err.Error())
	}
}

// getImage streams a stored cover. External image URLs are redirected to.
func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	id, err := bookIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	book, err := s.lib.Catalog.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ref := book.ImageRef()

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		http.Redirect(w, r, ref, http.StatusFound)
		return
	}

	if ref == "" {
		s.writeError(w, fmt.Errorf("%w: book %d has no image", core.ErrNotFound, id))
		return
	}

	body, contentType, err := s.lib.Images.Get(r.Context(), ref)
	if errors.Is(err, imagestore.ErrInvalidReference) {
		s.writeError(w, fmt.Errorf("%w: image of book %d", core.ErrNotFound, id))
		return
	}

	if err != nil {
		s.writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

func (s *Server) availability(w http.ResponseWriter, r *http.Request) {
	id, err := bookIDParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.lib.Ledger.CopiesAvailable(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
