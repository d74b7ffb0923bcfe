package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kinbook/lineage/internal/server/middleware"
	"github.com/kinbook/lineage/pkg/common"
	"github.com/kinbook/lineage/pkg/logger"
	"github.com/kinbook/lineage/pkg/tree"

	"github.com/labstack/echo/v4"
)

const (
	defaultGenerations = 3
	maxGenerationBound = 20
)

// generationBound reads a bounded depth query parameter. A missing value
// falls back to the default, a present value must lie in [1, 20].
func generationBound(c echo.Context, name string) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultGenerations, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxGenerationBound {
		return 0, false
	}
	return n, true
}

type traversalResponse struct {
	Message   string           `json:"message,omitempty"`
	Tree      *tree.Node       `json:"tree,omitempty"`
	Anomalies []common.Anomaly `json:"anomalies,omitempty"`
}

func respondTraversal(c echo.Context, node *tree.Node, anomalies []common.Anomaly, err error) error {
	if err != nil {
		if errors.Is(err, tree.ErrNotFound) {
			return c.JSON(http.StatusNotFound, traversalResponse{
				Message: "Person not found",
			})
		}
		if errors.Is(err, tree.ErrInvalidBound) {
			return c.JSON(http.StatusBadRequest, traversalResponse{
				Message: "Invalid generation bound",
			})
		}
		logger.Error("Failed to traverse graph", "err", err)
		return c.JSON(http.StatusInternalServerError, traversalResponse{
			Message: "Internal server error",
		})
	}
	return c.JSON(http.StatusOK, traversalResponse{Tree: node, Anomalies: anomalies})
}

// GetAncestorsHandler walks parent edges up from a person.
func GetAncestorsHandler(c echo.Context) error {
	id := c.Param("id")
	generations, ok := generationBound(c, "generations")
	if !ok {
		return c.JSON(http.StatusBadRequest, traversalResponse{
			Message: "Invalid generation bound",
		})
	}

	engine, err := c.(*middleware.AppContext).App.Graphs.Current(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load graph snapshot", "err", err)
		return c.JSON(http.StatusInternalServerError, traversalResponse{
			Message: "Internal server error",
		})
	}

	node, anomalies, err := engine.Ancestors(id, generations)
	return respondTraversal(c, node, anomalies, err)
}

// GetDescendantsHandler walks child edges down from a person.
func GetDescendantsHandler(c echo.Context) error {
	id := c.Param("id")
	generations, ok := generationBound(c, "generations")
	if !ok {
		return c.JSON(http.StatusBadRequest, traversalResponse{
			Message: "Invalid generation bound",
		})
	}

	engine, err := c.(*middleware.AppContext).App.Graphs.Current(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load graph snapshot", "err", err)
		return c.JSON(http.StatusInternalServerError, traversalResponse{
			Message: "Internal server error",
		})
	}

	node, anomalies, err := engine.Descendants(id, generations)
	return respondTraversal(c, node, anomalies, err)
}

// GetTreeHandler returns ancestors and descendants of a person in one
// combined view.
func GetTreeHandler(c echo.Context) error {
	id := c.Param("id")
	up, ok := generationBound(c, "ancestors")
	if !ok {
		return c.JSON(http.StatusBadRequest, traversalResponse{
			Message: "Invalid generation bound",
		})
	}
	down, ok := generationBound(c, "descendants")
	if !ok {
		return c.JSON(http.StatusBadRequest, traversalResponse{
			Message: "Invalid generation bound",
		})
	}

	engine, err := c.(*middleware.AppContext).App.Graphs.Current(c.Request().Context())
	if err != nil {
		logger.Error("Failed to load graph snapshot", "err", err)
		return c.JSON(http.StatusInternalServerError, traversalResponse{
			Message: "Internal server error",
		})
	}

	node, anomalies, err := engine.Tree(id, up, down)
	return respondTraversal(c, node, anomalies, err)
}
