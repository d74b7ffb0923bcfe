package routes

import (
	"net/http"

	"github.com/kinbook/lineage/internal/server/middleware"
	"github.com/kinbook/lineage/pkg/logger"
	pgstore "github.com/kinbook/lineage/pkg/store/pgx"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// GetFoundingAncestorsHandler lists the earliest known ancestors, persons
// without recorded parents.
func GetFoundingAncestorsHandler(c echo.Context) error {
	type foundingAncestorsParams struct {
		Limit int `query:"limit" validate:"omitempty,min=1,max=50"`
	}

	type foundingAncestorsResponse struct {
		Message string       `json:"message,omitempty"`
		Persons []personView `json:"persons"`
	}

	params := new(foundingAncestorsParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, foundingAncestorsResponse{
			Message: "Invalid request parameters",
		})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, foundingAncestorsResponse{
			Message: "Invalid request parameters",
		})
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewStore(conn)

	persons, err := st.ListFoundingAncestors(ctx, params.Limit)
	if err != nil {
		logger.Error("Failed to list founding ancestors", "err", err)
		return c.JSON(http.StatusInternalServerError, foundingAncestorsResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, foundingAncestorsResponse{Persons: toPersonViews(persons)})
}
