package routes

import (
	"errors"
	"net/http"

	"github.com/kinbook/lineage/internal/server/middleware"
	"github.com/kinbook/lineage/pkg/common"
	"github.com/kinbook/lineage/pkg/logger"
	"github.com/kinbook/lineage/pkg/store"
	pgstore "github.com/kinbook/lineage/pkg/store/pgx"

	"github.com/labstack/echo/v4"
)

// GetIngestionHandler returns the status and counts of one ingestion.
func GetIngestionHandler(c echo.Context) error {
	type getIngestionResponse struct {
		Message   string           `json:"message,omitempty"`
		Ingestion *store.Ingestion `json:"ingestion,omitempty"`
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewStore(conn)

	ing, err := st.GetIngestion(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getIngestionResponse{
				Message: "Ingestion not found",
			})
		}
		logger.Error("Failed to get ingestion", "err", err)
		return c.JSON(http.StatusInternalServerError, getIngestionResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getIngestionResponse{Ingestion: ing})
}

// GetIngestionAnomaliesHandler lists the anomalies one ingestion recorded.
func GetIngestionAnomaliesHandler(c echo.Context) error {
	type getAnomaliesResponse struct {
		Message   string           `json:"message,omitempty"`
		Anomalies []common.Anomaly `json:"anomalies"`
	}

	ctx := c.Request().Context()
	conn := c.(*middleware.AppContext).App.DBConn
	st := pgstore.NewStore(conn)

	anomalies, err := st.ListAnomalies(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, getAnomaliesResponse{
				Message: "Ingestion not found",
			})
		}
		logger.Error("Failed to list anomalies", "err", err)
		return c.JSON(http.StatusInternalServerError, getAnomaliesResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getAnomaliesResponse{Anomalies: anomalies})
}
