package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mwdynamics/studyvant/internal/dto"
)

var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// UploadHandler round-trips profile images for client-side cropping. Nothing
// is persisted server-side.
type UploadHandler struct{}

func NewUploadHandler() *UploadHandler {
	return &UploadHandler{}
}

// UploadImage validates the file type and hands back an upload handle plus the
// bytes re-encoded as a data URL for the cropper.
func (h *UploadHandler) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "No file uploaded",
		})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(dto.ErrorResponse{
			Error: true, Message: "Only png, jpg, jpeg and gif files are allowed",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to read upload",
		})
	}
	defer src.Close()

	buf, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to read upload",
		})
	}

	mime := "image/" + strings.TrimPrefix(ext, ".")
	if ext == ".jpg" {
		mime = "image/jpeg"
	}

	return c.JSON(fiber.Map{
		"handle":   uuid.New().String(),
		"data_url": fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(buf)),
	})
}

// SaveCropped decodes a cropped data URL and returns it as a downloadable
// attachment.
func (h *UploadHandler) SaveCropped(c *fiber.Ctx) error {
	var req struct {
		DataURL  string `json:"data_url"`
		Filename string `json:"filename"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	idx := strings.Index(req.DataURL, "base64,")
	if !strings.HasPrefix(req.DataURL, "data:image/") || idx < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Expected a base64 image data URL",
		})
	}

	raw, err := base64.StdEncoding.DecodeString(req.DataURL[idx+len("base64,"):])
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Malformed image data",
		})
	}

	name := strings.TrimSpace(req.Filename)
	if name == "" {
		name = "cropped.png"
	}
	if !allowedImageExts[strings.ToLower(filepath.Ext(name))] {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(dto.ErrorResponse{
			Error: true, Message: "Only png, jpg, jpeg and gif files are allowed",
		})
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Set(fiber.HeaderContentType, "application/octet-stream")
	return c.Send(raw)
}
