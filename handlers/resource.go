package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"trading-journal/apperr"
	"trading-journal/middleware"
	"trading-journal/models"
	"trading-journal/repository"
)

// Resource exposes one owner-scoped collection as list/create/retrieve/
// replace/patch/delete routes.
type Resource[T any, PT repository.Record[T]] struct {
	Repo   *repository.Scoped[T, PT]
	Logger *zap.Logger
	Name   string
}

func (r *Resource[T, PT]) Register(g *gin.RouterGroup, path string) {
	g.GET(path+"/", r.list)
	g.POST(path+"/", r.create)
	g.GET(path+"/:id/", r.get)
	g.PUT(path+"/:id/", r.replace)
	g.PATCH(path+"/:id/", r.patch)
	g.DELETE(path+"/:id/", r.delete)
}

func (r *Resource[T, PT]) list(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	items, err := r.Repo.List(c.Request.Context(), owner)
	if err != nil {
		writeError(c, r.Logger, "list "+r.Name, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (r *Resource[T, PT]) create(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, r.Logger, "create "+r.Name, apperr.Invalid(apperr.NonFieldErrors, "unreadable body"))
		return
	}
	item := PT(new(T))
	if err := fill(raw, item, true); err != nil {
		writeError(c, r.Logger, "create "+r.Name, err)
		return
	}
	if err := r.Repo.Create(c.Request.Context(), owner, item); err != nil {
		writeError(c, r.Logger, "create "+r.Name, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (r *Resource[T, PT]) get(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := r.Repo.Get(c.Request.Context(), owner, id)
	if err != nil {
		writeError(c, r.Logger, "get "+r.Name, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (r *Resource[T, PT]) replace(c *gin.Context) { r.update(c, true) }

func (r *Resource[T, PT]) patch(c *gin.Context) { r.update(c, false) }

// update handles PUT (full) and PATCH (partial). A PUT starts from the
// defaults so omitted fields reset; a PATCH starts from the stored record.
func (r *Resource[T, PT]) update(c *gin.Context, full bool) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c, r.Logger, "update "+r.Name, apperr.Invalid(apperr.NonFieldErrors, "unreadable body"))
		return
	}
	item, err := r.Repo.Update(c.Request.Context(), owner, id, func(item PT) error {
		if full {
			var zero T
			*item = zero
		}
		return fill(raw, item, full)
	})
	if err != nil {
		writeError(c, r.Logger, "update "+r.Name, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (r *Resource[T, PT]) delete(c *gin.Context) {
	owner, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.Repo.Delete(c.Request.Context(), owner, id); err != nil {
		writeError(c, r.Logger, "delete "+r.Name, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fill decodes raw onto item, applying column defaults first when the
// record is being written from scratch.
func fill(raw []byte, item any, fresh bool) error {
	if d, ok := item.(models.Defaulter); ok && fresh {
		d.SetDefaults()
	}
	return decode(raw, item)
}

func caller(c *gin.Context) (uint, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
	return id, ok
}

// pathID answers 404 for ids that cannot name any record.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return uuid.Nil, false
	}
	return id, true
}
