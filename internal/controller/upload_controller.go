package controller

import (
	"os"
	"path/filepath"
	"strings"

	"riverai-be/internal/apperror"
	"riverai-be/internal/dto"
	"riverai-be/internal/pkg/serverutils"
	"riverai-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUploadController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
}

type uploadController struct {
	ingestionService service.IIngestionService
	uploadsDir       string
}

func NewUploadController(ingestionService service.IIngestionService, uploadsDir string) IUploadController {
	return &uploadController{
		ingestionService: ingestionService,
		uploadsDir:       uploadsDir,
	}
}

func (c *uploadController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/upload/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Upload)
}

func (c *uploadController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return apperror.InvalidInput("missing file field")
	}

	filename := filepath.Base(fileHeader.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		// Reject before anything touches disk or the ledger.
		return apperror.InvalidInput("only PDF files are accepted")
	}

	if err := os.MkdirAll(c.uploadsDir, 0o755); err != nil {
		return err
	}
	if err := ctx.SaveFile(fileHeader, filepath.Join(c.uploadsDir, filename)); err != nil {
		return err
	}

	summary, err := c.ingestionService.Scan(ctx.Context())
	if err != nil {
		return err
	}

	ingested, err := c.ingestionService.IsIngested(ctx.Context(), filename)
	if err != nil {
		return err
	}

	res := &dto.UploadResponse{
		Filename: filename,
		Ingested: ingested,
		Details:  *summary,
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload document", res))
}
