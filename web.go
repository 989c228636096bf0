package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/rs/zerolog/log"

	"cropkit/cropper"
	"cropkit/geometry"
)

type Config struct {
	RootDir string
	// StaticDir serves a frontend from disk when set.
	StaticDir        string
	Sessions         *SessionStore
	Executor         *JobExecutor
	OnBeforeShutdown func()
	OnReady          func(addr string)
	OnExport         func(result JobResult)
}

type WebApp struct {
	config       Config
	shutdownCh   chan struct{}
	shutdownOnce sync.Once
}

func NewWebApp(config Config) *WebApp {
	return &WebApp{
		config:     config,
		shutdownCh: make(chan struct{}),
	}
}

func (a *WebApp) Shutdown() {
	a.shutdownOnce.Do(func() {
		close(a.shutdownCh)
	})
}

type createSessionRequest struct {
	Filename   string              `json:"filename"`
	Boundary   geometry.Size       `json:"boundary"`
	Transforms geometry.Transforms `json:"transforms"`
}

type exportRequest struct {
	Width int `json:"width"`
}

func errorHandler(c *fiber.Ctx, err error) error {
	log.Ctx(c.Context()).Error().
		Err(err).
		Str("path", c.Path()).
		Str("method", c.Method()).
		Msg("Request failed")
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		if fiberErr.Code == http.StatusNotFound && c.Path() == "/favicon.ico" {
			return nil
		}
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	case errors.Is(err, ErrSessionNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrUnknownAction):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
}

// App builds the fiber application with every route registered.
func (a *WebApp) App() *fiber.App {
	webapp := fiber.New(fiber.Config{
		Immutable:             true,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	filesRoot := http.Dir(a.config.RootDir)
	webapp.Get("/api/view", func(c *fiber.Ctx) error {
		filePath := c.Query("file")
		return filesystem.SendFile(c, filesRoot, filePath)
	})

	webapp.Get("/api/ls", func(c *fiber.Ctx) error {
		dir, err := walkImages(c.Context(), a.config.RootDir)
		if err != nil {
			return fmt.Errorf("failed to walk dir: %w", err)
		}
		for i := range dir.Files {
			dir.Files[i].URL = "/api/view?file=" + url.QueryEscape(dir.Files[i].Name)
		}
		return c.JSON(dir)
	})

	webapp.Post("/api/sessions", a.createSession)
	webapp.Get("/api/sessions/:id", func(c *fiber.Ctx) error {
		session, err := a.config.Sessions.Get(c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(session.View())
	})
	webapp.Post("/api/sessions/:id/actions", a.applyAction)
	webapp.Post("/api/sessions/:id/export", a.exportSession)
	webapp.Delete("/api/sessions/:id", func(c *fiber.Ctx) error {
		if err := a.config.Sessions.Delete(c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(http.StatusNoContent)
	})

	webapp.Post("/api/shutdown", func(c *fiber.Ctx) error {
		a.Shutdown()
		return nil
	})

	if a.config.StaticDir != "" {
		log.Debug().Str("dir", a.config.StaticDir).Msg("Serving static files")
		webapp.Static("/", a.config.StaticDir)
	}
	return webapp
}

func (a *WebApp) createSession(c *fiber.Ctx) error {
	var request createSessionRequest
	if err := c.BodyParser(&request); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if request.Filename == "" {
		return fiber.NewError(http.StatusBadRequest, "filename is required")
	}
	path, err := resolvePath(a.config.RootDir, request.Filename)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	info, err := readImageInfo(path)
	if err != nil {
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	}

	session := a.config.Sessions.Create(request.Filename)
	session.Reset(request.Boundary, info.Size(), request.Transforms)
	log.Ctx(c.Context()).Info().
		Str("session", session.ID).
		Str("filename", session.Filename).
		Msg("session created")
	return c.Status(http.StatusCreated).JSON(session.View())
}

func (a *WebApp) applyAction(c *fiber.Ctx) error {
	session, err := a.config.Sessions.Get(c.Params("id"))
	if err != nil {
		return err
	}
	var op Operation
	if err := json.Unmarshal(c.Body(), &op); err != nil {
		if errors.Is(err, ErrUnknownAction) {
			return err
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	var view SessionView
	if err := session.Do(func(i *cropper.Instance) error {
		if _, err := op.Apply(i); err != nil {
			return err
		}
		view = newSessionView(session.ID, session.Filename, i)
		return nil
	}); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(view)
}

func (a *WebApp) exportSession(c *fiber.Ctx) error {
	session, err := a.config.Sessions.Get(c.Params("id"))
	if err != nil {
		return err
	}
	var request exportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&request); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}

	var result JobResult
	if err := session.Do(func(i *cropper.Instance) error {
		crop, ok := cropper.Result(i.State())
		if !ok {
			return fiber.NewError(http.StatusConflict, "cropper is not initialized")
		}
		result = JobResult{
			Filename:    session.Filename,
			State:       i.State(),
			Crop:        crop,
			Diagnostics: i.Diagnostics(),
		}
		return nil
	}); err != nil {
		return err
	}

	sourcePath, err := resolvePath(a.config.RootDir, session.Filename)
	if err != nil {
		return err
	}
	if result.Output, err = a.config.Executor.exportCrop(c.Context(), sourcePath, result.Crop, request.Width); err != nil {
		return fmt.Errorf("failed to export %s: %w", session.Filename, err)
	}
	if fn := a.config.OnExport; fn != nil {
		fn(result)
	}
	return c.JSON(result)
}

func (a *WebApp) Run(ctx context.Context) error {
	webapp := a.App()

	webapp.Hooks().OnListen(func(listen fiber.ListenData) error {
		if fn := a.config.OnReady; fn != nil {
			fn(fmt.Sprintf("http://%s:%s", listen.Host, listen.Port))
		}
		return nil
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-a.shutdownCh:
		}
		if fn := a.config.OnBeforeShutdown; fn != nil {
			fn()
		}
		if err := webapp.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to shutdown web application")
		}
	}()

	// Let the OS assign a random available port
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", 0))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	if err := webapp.Listener(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
