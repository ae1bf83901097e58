package handlers

import (
	"errors"
	"io"
	"net/http"

	"communityboard/internal/apperr"
	"communityboard/internal/pagination"
	"communityboard/internal/repository"
	"communityboard/internal/service"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
)

// IdempotencyKeyHeader may carry the key instead of the request body.
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLen matches posts.idempotency_key.
const maxIdempotencyKeyLen = 64

// formats image
var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type CreatePostRequest struct {
	CommunityID    string  `json:"communityId" validate:"required,uuid"`
	IdempotencyKey *string `json:"idempotencyKey" validate:"omitempty,min=1,max=64"`
	Title          string  `json:"title" validate:"required,max=300"`
	Content        string  `json:"content"`
	Publish        bool    `json:"publish"`
}

type UpdatePostRequest struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=300"`
	Content *string `json:"content"`
}

type PublishRequest struct {
	Status string `json:"status" validate:"required,oneof=published"`
}

// GetPosts lists published posts, filtered by ?community_id=, ?author_id= and ?q=.
func (h *Handlers) GetPosts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	p, err := pagination.Parse(query, repository.PostSort)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	filter := service.PostQuery{
		CommunityID: query.Get("community_id"),
		AuthorID:    query.Get("author_id"),
		Query:       query.Get("q"),
	}
	for name, id := range map[string]string{"community_id": filter.CommunityID, "author_id": filter.AuthorID} {
		if id == "" {
			continue
		}
		if err := h.checkID(name, id); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	page, err := h.PostService.ListPosts(r.Context(), actorFrom(r), filter, p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, page, http.StatusOK)
}

func (h *Handlers) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.PostService.GetPost(r.Context(), actorFrom(r), mux.Vars(r)["postID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, post, http.StatusOK)
}

func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req CreatePostRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if req.IdempotencyKey == nil {
		if key := r.Header.Get(IdempotencyKeyHeader); key != "" {
			if len(key) > maxIdempotencyKeyLen {
				h.respondError(w, r, apperr.Newf(apperr.ErrValidation, "%s must satisfy max=%d", IdempotencyKeyHeader, maxIdempotencyKeyLen))
				return
			}
			req.IdempotencyKey = &key
		}
	}

	// creating a post
	post, err := h.PostService.CreatePost(r.Context(), actorFrom(r), service.PostInput{
		CommunityID:    req.CommunityID,
		Title:          req.Title,
		Content:        req.Content,
		IdempotencyKey: req.IdempotencyKey,
		Publish:        req.Publish,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, post, http.StatusCreated)
}

func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	post, err := h.PostService.UpdatePost(r.Context(), actorFrom(r), mux.Vars(r)["postID"], service.PostUpdate{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, post, http.StatusOK)
}

func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.PostService.DeletePost(r.Context(), actorFrom(r), mux.Vars(r)["postID"]); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeNoContent(w)
}

func (h *Handlers) RestorePost(w http.ResponseWriter, r *http.Request) {
	post, err := h.PostService.RestorePost(r.Context(), actorFrom(r), mux.Vars(r)["postID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, post, http.StatusOK)
}

func (h *Handlers) PublishPost(w http.ResponseWriter, r *http.Request) {
	var req PublishRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	post, err := h.PostService.PublishPost(r.Context(), actorFrom(r), mux.Vars(r)["postID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, post, http.StatusOK)
}

func (h *Handlers) AddImage(w http.ResponseWriter, r *http.Request) {
	maxSize := h.Cfg.MaxUploadSize
	tooLarge := apperr.Newf(apperr.ErrValidation, "file is too large (max %s)", humanize.IBytes(uint64(maxSize)))

	// setting the size limit from the config, with room for the multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.respondError(w, r, tooLarge)
			return
		}
		h.respondError(w, r, apperr.New(apperr.ErrValidation, "invalid multipart form"))
		return
	}

	// getting the file
	file, header, err := r.FormFile("image")
	if err != nil {
		h.respondError(w, r, apperr.New(apperr.ErrValidation, "image file is required"))
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		h.respondError(w, r, tooLarge)
		return
	}

	// the declared content type is not trusted
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		h.respondError(w, r, apperr.New(apperr.ErrValidation, "unable to read image"))
		return
	}
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		h.respondError(w, r, apperr.Newf(apperr.ErrValidation, "unsupported file type %s, allowed: JPEG, PNG, GIF, WebP", mtype.String()))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.respondError(w, r, err)
		return
	}

	image, err := h.PostService.AddImage(r.Context(), actorFrom(r), mux.Vars(r)["postID"], service.ImageUpload{
		File:        file,
		Size:        header.Size,
		ContentType: mtype.String(),
		Extension:   mtype.Extension(),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, image, http.StatusCreated)
}

func (h *Handlers) DeleteImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.PostService.DeleteImage(r.Context(), actorFrom(r), vars["postID"], vars["imageID"]); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeNoContent(w)
}
