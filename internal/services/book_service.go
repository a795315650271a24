package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"booktribe/internal/catalog"
	"booktribe/internal/models"
	"booktribe/internal/repositories"
)

// ─── Sentinel Errors ──────────────────────────────────────────────────────────

var (
	// ErrBookNotFound is returned when the requested book does not exist or is
	// not owned by the calling member.
	ErrBookNotFound = errors.New("book not found")

	// ErrUserNotFound is returned when the referenced member does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUploadFailed is returned when the cover upload fails. The whole
	// submission is aborted and no book row is written.
	ErrUploadFailed = errors.New("cover upload failed")
)

// ValidationError carries field-scoped messages for a draft that failed the
// pre-submission checks. No backend call is issued while one is pending.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ─── Drafts ───────────────────────────────────────────────────────────────────

// BookDraft mirrors the editable Book fields for one create/edit submission.
// The owner is never part of a draft; it is always taken from the
// authenticated caller (create) or the pre-existing row (edit).
type BookDraft struct {
	Title       string
	Author      string
	Description string
	Condition   models.BookCondition
	Status      models.BookStatus
	ISBN        string
	OpenLibID   string
	ImageURL    string
}

// CoverFile is a locally chosen cover image staged for upload. When present it
// wins over any catalog-provided ImageURL in the draft.
type CoverFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// UserProfile is the member profile reported by the external auth provider,
// used when a User row is created on first visit.
type UserProfile struct {
	FullName  string
	Email     string
	AvatarURL string
}

// DraftFromCatalog seeds a draft from a selected catalog result: title, first
// author (falling back to "Unknown"), first ISBN if present, the catalog
// reference id, and a candidate cover URL.
func DraftFromCatalog(r catalog.Result) BookDraft {
	author := "Unknown"
	if len(r.AuthorName) > 0 {
		author = r.AuthorName[0]
	}
	d := BookDraft{
		Title:     r.Title,
		Author:    author,
		Condition: models.BookConditionNew,
		Status:    models.BookStatusAvailable,
		OpenLibID: r.Key,
		ImageURL:  r.CoverURL(),
	}
	if len(r.ISBN) > 0 {
		d.ISBN = r.ISBN[0]
	}
	return d
}

func validateDraft(d BookDraft) *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(d.Title) == "" {
		fields["title"] = "Title is required"
	}
	if strings.TrimSpace(d.Author) == "" {
		fields["author"] = "Author is required"
	}
	if !d.Condition.Valid() {
		fields["condition"] = "Condition must be one of New, Good, Fair, Poor"
	}
	if !d.Status.Valid() {
		fields["status"] = "Status must be one of Available, Swapped"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ─── Service Interface ────────────────────────────────────────────────────────

// CoverStore uploads a staged cover image and returns its public URL.
type CoverStore interface {
	Upload(ctx context.Context, bookID uuid.UUID, filename, contentType string, body io.Reader) (string, error)
}

// CatalogSearcher looks up candidate records in the external catalog.
type CatalogSearcher interface {
	Search(ctx context.Context, query string) ([]catalog.Result, error)
}

// BookService defines the application-level operations of the swap community.
type BookService interface {
	EnsureUser(authID string, profile UserProfile) (*models.User, error)
	ListUsers() ([]models.User, error)

	ListBooks(ownerID string) ([]models.Book, error)
	CreateBook(ctx context.Context, ownerID string, draft BookDraft, cover *CoverFile) (*models.Book, error)
	UpdateBook(ctx context.Context, ownerID string, bookID uuid.UUID, draft BookDraft, cover *CoverFile) (*models.Book, error)
	DeleteBook(ownerID string, bookID uuid.UUID) error

	SearchCatalog(ctx context.Context, query string) []catalog.Result
}

// ─── Implementation ───────────────────────────────────────────────────────────

type bookService struct {
	userRepo repositories.UserRepository
	bookRepo repositories.BookRepository
	covers   CoverStore
	catalog  CatalogSearcher
}

// NewBookService wires up all dependencies and returns a BookService.
func NewBookService(
	userRepo repositories.UserRepository,
	bookRepo repositories.BookRepository,
	covers CoverStore,
	catalogClient CatalogSearcher,
) BookService {
	return &bookService{
		userRepo: userRepo,
		bookRepo: bookRepo,
		covers:   covers,
		catalog:  catalogClient,
	}
}

// ─── Members ──────────────────────────────────────────────────────────────────

// EnsureUser returns the member record for an external-auth identity, creating
// it on the member's first authenticated visit.
func (s *bookService) EnsureUser(authID string, profile UserProfile) (*models.User, error) {
	user, err := s.userRepo.GetByAuthID(authID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &models.User{
		AuthID:     authID,
		FullName:   strings.TrimSpace(profile.FullName),
		Email:      profile.Email,
		AvatarURL:  nilIfEmpty(profile.AvatarURL),
		BooksCount: 0,
	}
	if err := s.userRepo.Create(user); err != nil {
		log.Printf("[ERROR] EnsureUser: failed to create user for auth id %s: %v", authID, err)
		return nil, err
	}
	log.Printf("[INFO] EnsureUser: created user %s for auth id %s", user.ID, authID)
	return user, nil
}

// ListUsers returns every member for the community page.
func (s *bookService) ListUsers() ([]models.User, error) {
	return s.userRepo.List()
}

// ─── Library ──────────────────────────────────────────────────────────────────

// ListBooks returns the member's own collection.
func (s *bookService) ListBooks(ownerID string) ([]models.Book, error) {
	return s.bookRepo.ListByOwner(ownerID)
}

// CreateBook runs one create submission: validate, upload a staged cover if
// present, insert the row, then bump the owner's book count.
//
// The upload commits before the row write and nothing wraps the two in a
// transaction, so a failure after upload leaves an orphaned object at most,
// never a partial book row.
func (s *bookService) CreateBook(ctx context.Context, ownerID string, draft BookDraft, cover *CoverFile) (*models.Book, error) {
	// 1. Validate: no call is issued for a draft that fails the contract.
	if verr := validateDraft(draft); verr != nil {
		return nil, verr
	}

	// 2. The id is generated before the upload because the object key is
	// derived from it.
	id := uuid.New()

	// 3. Upload the staged file, if any. A staged file wins over a
	// catalog-provided cover URL.
	imageURL := draft.ImageURL
	if cover != nil {
		uploaded, err := s.covers.Upload(ctx, id, cover.Filename, cover.ContentType, cover.Body)
		if err != nil {
			log.Printf("[ERROR] CreateBook: cover upload failed for book %s: %v", id, err)
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		imageURL = uploaded
	}

	// 4. Insert the row. The owner is forced to the authenticated caller.
	book := &models.Book{
		ID:          id,
		Title:       draft.Title,
		Author:      draft.Author,
		Description: draft.Description,
		Condition:   draft.Condition,
		ISBN:        nilIfEmpty(draft.ISBN),
		OpenLibID:   nilIfEmpty(draft.OpenLibID),
		ImageURL:    nilIfEmpty(imageURL),
		Status:      draft.Status,
		OwnerID:     ownerID,
	}
	if err := s.bookRepo.Create(book); err != nil {
		log.Printf("[ERROR] CreateBook: failed to insert book %s for owner %s: %v", id, ownerID, err)
		return nil, err
	}

	// 5. Best-effort counter bump; failure is logged, never surfaced, and the
	// count may drift from the true row count.
	if err := s.userRepo.IncrementBooksCount(ownerID, 1); err != nil {
		log.Printf("[ERROR] CreateBook: failed to increment books_count for owner %s: %v", ownerID, err)
	}

	log.Printf("[INFO] CreateBook: created book %q (id=%s) for owner %s", book.Title, book.ID, ownerID)
	return book, nil
}

// UpdateBook runs one edit submission: the row matched by id has all editable
// fields overwritten, with id and owner preserved from the pre-existing row.
// The book count is not touched on edit.
//
// No version check is applied; concurrent edits to the same book are
// last-write-wins.
func (s *bookService) UpdateBook(ctx context.Context, ownerID string, bookID uuid.UUID, draft BookDraft, cover *CoverFile) (*models.Book, error) {
	if verr := validateDraft(draft); verr != nil {
		return nil, verr
	}

	existing, err := s.bookRepo.GetByID(bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	// A row owned by someone else is indistinguishable from a missing one.
	if existing.OwnerID != ownerID {
		log.Printf("[WARN] UpdateBook: owner %s attempted to edit book %s owned by %s", ownerID, bookID, existing.OwnerID)
		return nil, ErrBookNotFound
	}

	imageURL := draft.ImageURL
	if cover != nil {
		// Re-upload under the same book id replaces the prior object.
		uploaded, err := s.covers.Upload(ctx, existing.ID, cover.Filename, cover.ContentType, cover.Body)
		if err != nil {
			log.Printf("[ERROR] UpdateBook: cover upload failed for book %s: %v", existing.ID, err)
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		imageURL = uploaded
	}

	book := &models.Book{
		ID:          existing.ID,
		Title:       draft.Title,
		Author:      draft.Author,
		Description: draft.Description,
		Condition:   draft.Condition,
		ISBN:        nilIfEmpty(draft.ISBN),
		OpenLibID:   nilIfEmpty(draft.OpenLibID),
		ImageURL:    nilIfEmpty(imageURL),
		Status:      draft.Status,
		OwnerID:     existing.OwnerID,
		CreatedAt:   existing.CreatedAt,
	}
	if err := s.bookRepo.Save(book); err != nil {
		log.Printf("[ERROR] UpdateBook: failed to update book %s: %v", bookID, err)
		return nil, err
	}

	log.Printf("[INFO] UpdateBook: updated book %q (id=%s) for owner %s", book.Title, book.ID, ownerID)
	return book, nil
}

// DeleteBook removes a single book owned by the caller. There is no
// soft-delete and the owner's book count is left alone, matching the
// counter's increment-only drift behavior.
func (s *bookService) DeleteBook(ownerID string, bookID uuid.UUID) error {
	existing, err := s.bookRepo.GetByID(bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}
	if existing.OwnerID != ownerID {
		log.Printf("[WARN] DeleteBook: owner %s attempted to delete book %s owned by %s", ownerID, bookID, existing.OwnerID)
		return ErrBookNotFound
	}

	if err := s.bookRepo.Delete(bookID); err != nil {
		log.Printf("[ERROR] DeleteBook: failed to delete book %s: %v", bookID, err)
		return err
	}
	log.Printf("[INFO] DeleteBook: deleted book %s for owner %s", bookID, ownerID)
	return nil
}

// ─── Catalog ──────────────────────────────────────────────────────────────────

// SearchCatalog proxies a free-text query to the external catalog. Failures
// degrade to an empty result set with a logged diagnostic; the caller never
// sees an error for this operation.
func (s *bookService) SearchCatalog(ctx context.Context, query string) []catalog.Result {
	results, err := s.catalog.Search(ctx, query)
	if err != nil {
		log.Printf("[ERROR] SearchCatalog: query %q failed: %v", query, err)
		return []catalog.Result{}
	}
	return results
}

// ─── Internal Helpers ─────────────────────────────────────────────────────────

// nilIfEmpty maps "" to NULL for the optional columns.
func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
