package routes

import (
	"net/http"

	"github.com/kinbook/lineage/internal/queue"
	"github.com/kinbook/lineage/internal/server/middleware"
	"github.com/kinbook/lineage/internal/storage"
	"github.com/kinbook/lineage/pkg/loader"
	"github.com/kinbook/lineage/pkg/logger"
	"github.com/kinbook/lineage/pkg/store"
	pgstore "github.com/kinbook/lineage/pkg/store/pgx"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// CreateIngestionHandler uploads a transcript to S3, registers the
// ingestion and queues it for processing.
func CreateIngestionHandler(c echo.Context) error {
	type createIngestionResponse struct {
		Message   string           `json:"message"`
		Ingestion *store.Ingestion `json:"ingestion,omitempty"`
	}

	file, err := c.FormFile("transcript")
	if err != nil {
		return c.JSON(http.StatusBadRequest, createIngestionResponse{
			Message: "No transcript provided",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, createIngestionResponse{
			Message: "Could not open file",
		})
	}
	defer src.Close()

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	publicID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createIngestionResponse{
			Message: "Internal server error",
		})
	}

	key, err := storage.PutFile(ctx, app.S3, "transcripts", file.Filename, publicID, src)
	if err != nil {
		logger.Error("Failed to upload transcript", "err", err)
		return c.JSON(http.StatusInternalServerError, createIngestionResponse{
			Message: "Internal server error",
		})
	}

	st := pgstore.NewStore(app.DBConn)
	ing, err := st.CreateIngestion(ctx, publicID, loader.SourceS3, key)
	if err != nil {
		logger.Error("Failed to create ingestion", "err", err)
		if cleanupErr := storage.DeleteFile(ctx, app.S3, key); cleanupErr != nil {
			logger.Warn("Failed to remove orphaned transcript", "key", key, "err", cleanupErr)
		}
		return c.JSON(http.StatusInternalServerError, createIngestionResponse{
			Message: "Internal server error",
		})
	}

	err = queue.PublishIngest(app.Queue, queue.IngestMessage{
		IngestionID: publicID,
		Source:      loader.SourceS3,
		Path:        key,
	})
	if err != nil {
		logger.Error("Failed to publish ingest message", "ingestion", publicID, "err", err)
		if failErr := st.FailIngestion(ctx, ing.ID, "queue publish failed"); failErr != nil {
			logger.Warn("Failed to mark ingestion as failed", "ingestion", publicID, "err", failErr)
		}
		return c.JSON(http.StatusInternalServerError, createIngestionResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, createIngestionResponse{
		Message:   "Ingestion queued",
		Ingestion: ing,
	})
}
