package handler

import (
	"errors"
	"net/http"

	"github.com/mariabakes/breads-rest-api/internal/http/response"
	"github.com/mariabakes/breads-rest-api/internal/service"
)

type TagHandler struct {
	tags *service.TagService
}

func NewTagHandler(tags *service.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

type tagRequest struct {
	Name string `json:"name" validate:"required,max=30"`
}

func (h *TagHandler) ListForBakery(w http.ResponseWriter, r *http.Request) {
	bakeryID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	tags, err := h.tags.ListForBakery(bakeryID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tags)
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	bakeryID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req tagRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	tag, err := h.tags.Create(bakeryID, req.Name)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, tag)
}

func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	tag, err := h.tags.Get(id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, tag)
}

func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if err := h.tags.Delete(id); err != nil {
		if errors.Is(err, service.ErrTagInUse) {
			response.Error(w, r, http.StatusBadRequest, "TAG_IN_USE", "tag is still linked to breads", nil)
			return
		}
		writeDomainError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"message": "tag deleted",
		"id":      id,
	})
}
