package handlers

import (
	"context"

	"github.com/developia-II/ratemy-backend/internal/models"
	"github.com/developia-II/ratemy-backend/internal/services"
	"github.com/developia-II/ratemy-backend/utils"
	"github.com/gofiber/fiber/v2"
)

type resourceHandler[T any, P interface {
	*T
	models.Resource
}] struct {
	store *services.ResourceStore[T, P]
	what  string
	ctx   func(*fiber.Ctx) (context.Context, context.CancelFunc)
}

// mountResource serves list/get publicly and create/update/delete behind auth.
func mountResource[T any, P interface {
	*T
	models.Resource
}](r fiber.Router, path, what string, store *services.ResourceStore[T, P], auth fiber.Handler, ctx func(*fiber.Ctx) (context.Context, context.CancelFunc)) {
	rh := &resourceHandler[T, P]{store: store, what: what, ctx: ctx}
	g := r.Group(path)
	g.Get("/", rh.list)
	g.Get("/:id", rh.get)
	g.Post("/", auth, rh.create)
	g.Put("/:id", auth, rh.update)
	g.Delete("/:id", auth, rh.remove)
}

func (rh *resourceHandler[T, P]) list(c *fiber.Ctx) error {
	query := make(map[string]string, len(rh.store.Filters()))
	for _, f := range rh.store.Filters() {
		query[f] = c.Query(f)
	}

	ctx, cancel := rh.ctx(c)
	defer cancel()
	page, err := rh.store.List(ctx, c.Query("q"), query, services.ParsePage(c.Query("page"), c.Query("limit")))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (rh *resourceHandler[T, P]) get(c *fiber.Ctx) error {
	id, err := paramID(c, "id", rh.what)
	if err != nil {
		return err
	}

	ctx, cancel := rh.ctx(c)
	defer cancel()
	doc, err := rh.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

func (rh *resourceHandler[T, P]) body(c *fiber.Ctx) (P, error) {
	doc := P(new(T))
	if err := utils.ParseBody(c, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (rh *resourceHandler[T, P]) create(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	doc, err := rh.body(c)
	if err != nil {
		return err
	}

	ctx, cancel := rh.ctx(c)
	defer cancel()
	created, err := rh.store.Create(ctx, uid, doc)
	if err != nil {
		return err
	}
	return utils.Created(c, created)
}

func (rh *resourceHandler[T, P]) update(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", rh.what)
	if err != nil {
		return err
	}
	doc, err := rh.body(c)
	if err != nil {
		return err
	}

	ctx, cancel := rh.ctx(c)
	defer cancel()
	updated, err := rh.store.Update(ctx, uid, id, doc)
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (rh *resourceHandler[T, P]) remove(c *fiber.Ctx) error {
	uid, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", rh.what)
	if err != nil {
		return err
	}

	ctx, cancel := rh.ctx(c)
	defer cancel()
	if err := rh.store.Delete(ctx, uid, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Deleted"})
}
