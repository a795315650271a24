package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"booktribe/internal/models"
	"booktribe/internal/services"
)

// authHeader carries the external-auth identity of the caller. Authentication
// itself happens at the fronting identity provider; the value arriving here is
// already verified.
const authHeader = "X-Auth-Id"

const authIDKey = "authID"

// placeholderCover is served in place of a cover when the catalog reports no
// image id for a result.
const placeholderCover = "/placeholder-cover.jpg"

type BookHandler struct {
	svc services.BookService
}

func RegisterRoutes(r *gin.Engine, svc services.BookService) {
	h := &BookHandler{svc: svc}

	// Community endpoints
	r.GET("/users", h.listUsers)

	// Member endpoints
	auth := r.Group("/", authRequired())
	auth.POST("/me", h.syncUser)
	auth.GET("/books", h.listBooks)
	auth.POST("/books", h.createBook)
	auth.PUT("/books/:id", h.updateBook)
	auth.DELETE("/books/:id", h.deleteBook)
	auth.GET("/catalog/search", h.searchCatalog)
}

func authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authID := c.GetHeader(authHeader)
		if authID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth identity"})
			return
		}
		c.Set(authIDKey, authID)
		c.Next()
	}
}

type syncUserRequest struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// syncUser lazily creates the member record on first authenticated visit and
// returns it. The member's profile travels in the body since only the identity
// provider knows it.
func (h *BookHandler) syncUser(c *gin.Context) {
	var req syncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.EnsureUser(c.GetString(authIDKey), services.UserProfile{
		FullName:  req.FullName,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		// Intentionally fatal: no page renders without the member's own record.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *BookHandler) listUsers(c *gin.Context) {
	users, err := h.svc.ListUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *BookHandler) listBooks(c *gin.Context) {
	books, err := h.svc.ListBooks(c.GetString(authIDKey))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, books)
}

// draftFromForm reads one create/edit submission from a multipart form. The
// condition and status fields default like the original form does when left
// blank. An attached "cover" file part, if any, is returned alongside.
func draftFromForm(c *gin.Context) (services.BookDraft, *services.CoverFile, error) {
	draft := services.BookDraft{
		Title:       c.PostForm("title"),
		Author:      c.PostForm("author"),
		Description: c.PostForm("description"),
		Condition:   models.BookCondition(c.DefaultPostForm("condition", string(models.BookConditionNew))),
		Status:      models.BookStatus(c.DefaultPostForm("status", string(models.BookStatusAvailable))),
		ISBN:        c.PostForm("isbn"),
		OpenLibID:   c.PostForm("open_lib_id"),
		ImageURL:    c.PostForm("image_url"),
	}

	header, err := c.FormFile("cover")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return draft, nil, nil
		}
		return draft, nil, err
	}
	f, err := header.Open()
	if err != nil {
		return draft, nil, err
	}
	cover := &services.CoverFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}
	return draft, cover, nil
}

func (h *BookHandler) createBook(c *gin.Context) {
	draft, cover, err := draftFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, err := h.svc.CreateBook(c.Request.Context(), c.GetString(authIDKey), draft, cover)
	if err != nil {
		respondBookError(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (h *BookHandler) updateBook(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	draft, cover, err := draftFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	book, err := h.svc.UpdateBook(c.Request.Context(), c.GetString(authIDKey), bookID, draft, cover)
	if err != nil {
		respondBookError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *BookHandler) deleteBook(c *gin.Context) {
	bookID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid book id"})
		return
	}

	if err := h.svc.DeleteBook(c.GetString(authIDKey), bookID); err != nil {
		if errors.Is(err, services.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": services.ErrBookNotFound.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete book"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": bookID})
}

type searchResultResponse struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	AuthorName []string `json:"author_name"`
	ISBN       []string `json:"isbn"`
	CoverURL   string   `json:"cover_url"`
}

func (h *BookHandler) searchCatalog(c *gin.Context) {
	results := h.svc.SearchCatalog(c.Request.Context(), c.Query("q"))

	out := make([]searchResultResponse, 0, len(results))
	for _, r := range results {
		coverURL := r.CoverURL()
		if coverURL == "" {
			coverURL = placeholderCover
		}
		out = append(out, searchResultResponse{
			Key:        r.Key,
			Title:      r.Title,
			AuthorName: r.AuthorName,
			ISBN:       r.ISBN,
			CoverURL:   coverURL,
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

// respondBookError maps workflow errors onto statuses: field-scoped validation
// failures come back 400 with per-field messages, upload failures 502 with a
// generic message, not-found 404, and write failures surface the backend's
// message verbatim.
func respondBookError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
	case errors.Is(err, services.ErrUploadFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
	case errors.Is(err, services.ErrBookNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": services.ErrBookNotFound.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
