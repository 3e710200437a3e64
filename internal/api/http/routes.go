package httpapi

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"nasapower/internal/geocode"
	"nasapower/internal/places"
	"nasapower/internal/power"
	"nasapower/internal/scheduler"
	"nasapower/internal/store"
)

var validate = validator.New()

// Services bundles everything the handlers need.
type Services struct {
	Registry *store.Registry
	Resolver *geocode.Resolver
	Fetcher  *power.Fetcher
	Catalog  *scheduler.CatalogRefresher
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Services) {
	v1 := app.Group("/api/v1")

	v1.Post("/collections", func(c *fiber.Ctx) error {
		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		collection, err := places.New(req.Names...)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		id := svc.Registry.Add(collection)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":    id,
			"names": collection.Names(),
		})
	})

	v1.Get("/collections/:id", func(c *fiber.Ctx) error {
		var view collectionView
		err := svc.Registry.With(c.Params("id"), func(collection *places.Collection) error {
			view = newCollectionView(c.Params("id"), collection)
			return nil
		})
		if err != nil {
			return mapError(err)
		}
		return c.JSON(view)
	})

	v1.Post("/collections/:id/geocode", func(c *fiber.Ctx) error {
		var req geocodeRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			if err := validate.Struct(req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}

		opts := geocode.ResolveOptions{
			MinDelay: time.Duration(req.MinDelaySeconds * float64(time.Second)),
			Timeout:  time.Duration(req.TimeoutSeconds * float64(time.Second)),
		}

		var view collectionView
		err := svc.Registry.With(c.Params("id"), func(collection *places.Collection) error {
			if err := svc.Resolver.Resolve(c.Context(), collection, opts); err != nil {
				return err
			}
			view = newCollectionView(c.Params("id"), collection)
			return nil
		})
		if err != nil {
			return mapError(err)
		}
		return c.JSON(view)
	})

	v1.Post("/collections/:id/climatology", func(c *fiber.Ctx) error {
		var req climatologyRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		fetchReq := power.Request{
			Parameters: req.Parameters,
			Community:  req.Community,
			Format:     req.Format,
			Start:      req.Start,
			End:        req.End,
		}

		var view collectionView
		err := svc.Registry.With(c.Params("id"), func(collection *places.Collection) error {
			if err := svc.Fetcher.Fetch(c.Context(), collection, fetchReq); err != nil {
				return err
			}
			view = newCollectionView(c.Params("id"), collection)
			return nil
		})
		if err != nil {
			return mapError(err)
		}
		return c.JSON(view)
	})

	v1.Get("/parameters", func(c *fiber.Ctx) error {
		params, ok := svc.Catalog.Parameters()
		if !ok {
			return fiber.NewError(fiber.StatusBadGateway, "parameter catalog not available yet")
		}
		return c.JSON(fiber.Map{"parameters": params})
	})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, power.ErrNoCoordinates):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, power.ErrInvalidRequest), errors.Is(err, places.ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

// NameList accepts either a single string or an array of strings, matching
// how callers habitually pass a lone place name.
type NameList []string

func (n *NameList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*n = NameList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.New("names must be a string or an array of strings")
	}
	*n = NameList(many)
	return nil
}

type createRequest struct {
	Names NameList `json:"names" validate:"required,min=1"`
}

type geocodeRequest struct {
	MinDelaySeconds float64 `json:"min_delay_seconds" validate:"gte=0"`
	TimeoutSeconds  float64 `json:"timeout_seconds" validate:"gte=0"`
}

type climatologyRequest struct {
	Parameters []string `json:"parameters"`
	Community  string   `json:"community"`
	Format     string   `json:"format"`
	Start      *int     `json:"start"`
	End        *int     `json:"end"`
}

// collectionView is the JSON shape of a collection and its derived state.
type collectionView struct {
	ID            string                        `json:"id"`
	Names         []string                      `json:"names"`
	Addresses     map[string]string             `json:"addresses,omitempty"`
	Coordinates   map[string]places.Coordinates `json:"coordinates,omitempty"`
	Geodetails    map[string]json.RawMessage    `json:"geodetails,omitempty"`
	Climatologies map[string]places.Climatology `json:"climatologies,omitempty"`
	Text          string                        `json:"text"`
}

func newCollectionView(id string, collection *places.Collection) collectionView {
	return collectionView{
		ID:            id,
		Names:         collection.Names(),
		Addresses:     collection.Addresses(),
		Coordinates:   collection.Coordinates(),
		Geodetails:    collection.Geodetails(),
		Climatologies: collection.Climatologies(),
		Text:          collection.String(),
	}
}
