package handler

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	DB        *sql.DB
	Documents service.DocumentService
	Downloads service.DownloadService
	Users     service.UserService

	// Auth resolves the Bearer token into an actor; LoginLimit throttles
	// credential guessing on the login endpoint.
	Auth       fiber.Handler
	LoginLimit fiber.Handler
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: decode, call the service, translate errors.
func RegisterRoutes(app *fiber.App, deps Deps) {
	// Health endpoint: checks DB connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := deps.DB.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	api := app.Group("/api/v1")

	users := api.Group("/users")

	users.Post("/register", func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := req.Validate(); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		}

		res, err := deps.Users.Register(c.UserContext(), service.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Role:     req.Role,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	users.Post("/login", deps.LoginLimit, func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := req.Validate(); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		}

		res, err := deps.Users.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	})

	users.Post("/refresh-token", func(c *fiber.Ctx) error {
		var req refreshRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := req.Validate(); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		}

		res, err := deps.Users.Refresh(c.UserContext(), req.RefreshToken)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	})

	users.Post("/logout", deps.Auth, func(c *fiber.Ctx) error {
		actor := middleware.ActorFromCtx(c)
		if err := deps.Users.Logout(c.UserContext(), actor.ID); err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "logged out"})
	})

	docs := api.Group("/documents")

	// Registered before /:id so "download" is never captured as an id.
	// Deliberately unauthenticated: the token itself is the capability.
	docs.Get("/download/:token", func(c *fiber.Ctx) error {
		res, err := deps.Downloads.Redeem(c.UserContext(), c.Params("token"))
		if err != nil {
			return writeServiceError(c, err)
		}
		// The stream is consumed after this handler returns; fasthttp closes
		// it once the body is written.
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.Filename))
		if res.ContentType != "" {
			c.Set(fiber.HeaderContentType, res.ContentType)
		}
		return c.SendStream(res.Stream, int(res.Size))
	})

	// Upload document (multipart/form-data: file, plus optional name and tags fields)
	docs.Post("/", deps.Auth, func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		name := c.FormValue("name")
		if name == "" {
			name = fh.Filename
		}
		if err := validateDocumentName(name); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "name: "+err.Error())
		}
		if err := validateDocumentTags(c.FormValue("tags")); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "tags: "+err.Error())
		}

		doc, err := deps.Documents.Upload(c.UserContext(), middleware.ActorFromCtx(c), f, service.UploadInput{
			Name:             name,
			Tags:             c.FormValue("tags"),
			OriginalFilename: fh.Filename,
			ContentType:      ct,
			Size:             fh.Size,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	})

	// List documents with limit & offset, or all documents of one owner by email
	docs.Get("/", deps.Auth, func(c *fiber.Ctx) error {
		if email := c.Query("email"); email != "" {
			items, err := deps.Documents.ListByEmail(c.UserContext(), email)
			if err != nil {
				return writeServiceError(c, err)
			}
			return c.JSON(fiber.Map{"data": items, "total": len(items)})
		}

		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := deps.Documents.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	})

	// Search documents by comma-separated tags
	docs.Get("/search", deps.Auth, func(c *fiber.Ctx) error {
		tags := c.Query("tags")
		if strings.TrimSpace(tags) == "" {
			return writeError(c, fiber.StatusBadRequest, "TAGS_REQUIRED", "tags query parameter is required")
		}

		items, err := deps.Documents.Search(c.UserContext(), tags)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": items, "total": len(items)})
	})

	// Get document by ID
	docs.Get("/:id", deps.Auth, func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := deps.Documents.Get(c.UserContext(), middleware.ActorFromCtx(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	})

	// Patch document metadata, optionally replacing the stored file
	docs.Patch("/:id", deps.Auth, func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var in service.UpdateInput
		if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
			form, err := c.MultipartForm()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid multipart form")
			}
			if vals := form.Value["name"]; len(vals) > 0 {
				in.Name = &vals[0]
			}
			if vals := form.Value["tags"]; len(vals) > 0 {
				in.Tags = &vals[0]
			}
			if files := form.File["file"]; len(files) > 0 {
				fh := files[0]
				f, err := fh.Open()
				if err != nil {
					return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
				}
				defer f.Close()
				in.Content = f
				in.OriginalFilename = fh.Filename
				in.ContentType = fh.Header.Get("Content-Type")
				in.Size = fh.Size
			}
		} else {
			var req struct {
				Name *string `json:"name"`
				Tags *string `json:"tags"`
			}
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
			in.Name = req.Name
			in.Tags = req.Tags
		}

		if in.Name != nil {
			if err := validateDocumentName(*in.Name); err != nil {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "name: "+err.Error())
			}
		}
		if in.Tags != nil {
			if err := validateDocumentTags(*in.Tags); err != nil {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "tags: "+err.Error())
			}
		}

		doc, err := deps.Documents.Update(c.UserContext(), middleware.ActorFromCtx(c), id, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	})

	// Delete document by ID
	docs.Delete("/:id", deps.Auth, func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := deps.Documents.Delete(c.UserContext(), middleware.ActorFromCtx(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Mint a short-lived download link for a document (owner only)
	docs.Get("/:id/download-link", deps.Auth, func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		url, err := deps.Downloads.GenerateLink(c.UserContext(), middleware.ActorFromCtx(c), id, c.BaseURL())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"download_url": url})
	})
}
