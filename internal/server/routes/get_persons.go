package routes

import (
	"errors"
	"net/http"

	"github.com/kinbook/lineage/internal/server/middleware"
	sutil "github.com/kinbook/lineage/internal/server/util"
	"github.com/kinbook/lineage/pkg/logger"
	"github.com/kinbook/lineage/pkg/store"
	pgstore "github.com/kinbook/lineage/pkg/store/pgx"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

type personView struct {
	store.PersonSummary
	Lifespan string `json:"lifespan,omitempty"`
}

type spouseView struct {
	store.SpouseSummary
	Lifespan string `json:"lifespan,omitempty"`
}

func toPersonViews(persons []store.PersonSummary) []personView {
	views := make([]personView, 0, len(persons))
	for _, p := range persons {
		views = append(views, personView{
			PersonSummary: p,
			Lifespan:      sutil.FormatLifespan(p.BirthYear, p.DeathYear),
		})
	}
	return views
}

// SearchPersonsHandler looks up persons by display name or alias.
func SearchPersonsHandler(c echo.Context) error {
	type searchPersonsParams struct {
		Query string `query:"q" validate:"required,min=2"`
		Limit int    `query:"limit" validate:"omitempty,min=1,max=100"`
	}

	type searchPersonsResponse struct {
		Message string       `json:"message,omitempty"`
		Query   string       `json:"query,omitempty"`
		Persons []personView `json:"persons"`
	}

	params := new(searchPersonsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, searchPersonsResponse{
			Message: "Invalid request parameters",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, searchPersonsResponse{
			Message: "Invalid request parameters",
		})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewStore(conn)

	persons, err := st.SearchPersons(ctx, params.Query, params.Limit)
	if err != nil {
		logger.Error("Failed to search persons", "err", err)
		return c.JSON(http.StatusInternalServerError, searchPersonsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, searchPersonsResponse{
		Query:   params.Query,
		Persons: toPersonViews(persons),
	})
}

// GetPersonHandler returns one person with aliases, marriages and
// immediate relatives.
func GetPersonHandler(c echo.Context) error {
	type personDetailView struct {
		*store.PersonDetail
		Lifespan string       `json:"lifespan,omitempty"`
		Spouses  []spouseView `json:"spouses"`
		Parents  []personView `json:"parents"`
		Children []personView `json:"children"`
	}

	type getPersonResponse struct {
		Message string            `json:"message,omitempty"`
		Person  *personDetailView `json:"person,omitempty"`
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewStore(conn)

	person, err := st.GetPerson(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getPersonResponse{
				Message: "Person not found",
			})
		}
		logger.Error("Failed to get person", "err", err)
		return c.JSON(http.StatusInternalServerError, getPersonResponse{
			Message: "Internal server error",
		})
	}

	spouses := make([]spouseView, 0, len(person.Spouses))
	for _, sp := range person.Spouses {
		spouses = append(spouses, spouseView{
			SpouseSummary: sp,
			Lifespan:      sutil.FormatLifespan(sp.BirthYear, sp.DeathYear),
		})
	}

	view := &personDetailView{
		PersonDetail: person,
		Lifespan:     sutil.FormatLifespan(person.BirthYear, person.DeathYear),
		Spouses:      spouses,
		Parents:      toPersonViews(person.Parents),
		Children:     toPersonViews(person.Children),
	}

	return c.JSON(http.StatusOK, getPersonResponse{Person: view})
}
