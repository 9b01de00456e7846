package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/dmitrijs2005/carmarket/internal/filex"
	"github.com/dmitrijs2005/carmarket/internal/logging"
	"github.com/dmitrijs2005/carmarket/internal/server/images"
	"github.com/dmitrijs2005/carmarket/internal/server/models"
	"github.com/dmitrijs2005/carmarket/internal/server/services"
	"github.com/dmitrijs2005/carmarket/internal/server/validation"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserService interface {
	SignUp(ctx context.Context, email, password, name string) (string, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type CarService interface {
	Create(ctx context.Context, f services.CarFields, ownerID string, imagePaths []string) (*models.Car, error)
	FindAll(ctx context.Context) ([]models.Car, error)
	FindOne(ctx context.Context, id string) (*models.Car, error)
	Update(ctx context.Context, id string, patch models.CarPatch, ownerID string, imagePaths []string) (*models.Car, error)
	Remove(ctx context.Context, id, ownerID string) (*services.DeleteResult, error)
	MarkAsSold(ctx context.Context, id, ownerID string) (*models.Car, error)
	Authorize(ctx context.Context, id, ownerID string) error
}

type NotificationService interface {
	SendEnquiry(ctx context.Context, form *models.EnquiryForm) error
	SendSellInquiry(ctx context.Context, form *models.SellForm) error
}

type ImageProcessor interface {
	Process(ctx context.Context, uploads []images.Upload) ([]string, error)
}

type ImageStore interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type handlers struct {
	users         UserService
	cars          CarService
	notifications NotificationService
	images        ImageProcessor
	imageStore    ImageStore
	health        HealthChecker
	healthTimeout time.Duration
	tempDir       string
	maxFileSize   int64
	logger        logging.Logger
}

func parseJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return err
		}
		return common.Validationf("malformed request body")
	}
	return validation.Struct(out)
}

func (h *handlers) signUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	token, err := h.users.SignUp(c.UserContext(), req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tokenResponse{Token: token})
}

func (h *handlers) signIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := parseJSON(c, &req); err != nil {
		return err
	}

	token, err := h.users.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(tokenResponse{Token: token})
}

// readCar parses a listing body (multipart or JSON) and runs attached files
// through the image pipeline. precheck runs after the fields are parsed and
// before any file is staged; a failing precheck stores nothing.
func (h *handlers) readCar(c *fiber.Ctx, precheck func(*carRequest) error) (*carRequest, []string, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		req := &carRequest{}
		if len(c.Body()) > 0 {
			if err := parseJSON(c, req); err != nil {
				return nil, nil, err
			}
		}
		return req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, common.Validationf("malformed multipart body")
	}

	files := form.File["images"]
	if len(files) > common.MaxImagesPerRequest {
		return nil, nil, common.Validationf("at most %d images per request", common.MaxImagesPerRequest)
	}
	for _, fh := range files {
		if h.maxFileSize > 0 && fh.Size > h.maxFileSize {
			return nil, nil, common.Validationf("image %s exceeds %d bytes", fh.Filename, h.maxFileSize)
		}
	}

	req, err := carRequestFromForm(form)
	if err != nil {
		return nil, nil, err
	}
	if err := validation.Struct(req); err != nil {
		return nil, nil, err
	}

	if len(files) == 0 {
		return req, nil, nil
	}

	if err := precheck(req); err != nil {
		return nil, nil, err
	}

	uploads, err := h.stage(c, files)
	if err != nil {
		return nil, nil, err
	}

	paths, err := h.images.Process(c.UserContext(), uploads)
	if err != nil {
		return nil, nil, err
	}
	return req, paths, nil
}

// stage copies uploaded files into the temp dir under fresh names.
func (h *handlers) stage(c *fiber.Ctx, files []*multipart.FileHeader) ([]images.Upload, error) {
	uploads := make([]images.Upload, 0, len(files))
	for _, fh := range files {
		path := filepath.Join(h.tempDir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
		if err := c.SaveFile(fh, path); err != nil {
			for _, u := range uploads {
				_ = filex.RemoveIfExists(u.TempPath)
			}
			return nil, fmt.Errorf("stage upload %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, images.Upload{OriginalName: fh.Filename, TempPath: path})
	}
	return uploads, nil
}

func (h *handlers) createCar(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	req, paths, err := h.readCar(c, func(r *carRequest) error {
		return services.ValidateFields(r.toFields())
	})
	if err != nil {
		return err
	}

	car, err := h.cars.Create(c.UserContext(), req.toFields(), user.ID, paths)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(car)
}

func (h *handlers) listCars(c *fiber.Ctx) error {
	list, err := h.cars.FindAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (h *handlers) getCar(c *fiber.Ctx) error {
	car, err := h.cars.FindOne(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(car)
}

func (h *handlers) updateCar(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	req, paths, err := h.readCar(c, func(r *carRequest) error {
		if err := services.ValidatePatch(r.toPatch()); err != nil {
			return err
		}
		return h.cars.Authorize(c.UserContext(), id, user.ID)
	})
	if err != nil {
		return err
	}

	car, err := h.cars.Update(c.UserContext(), id, req.toPatch(), user.ID, paths)
	if err != nil {
		return err
	}
	return c.JSON(car)
}

func (h *handlers) markCarSold(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	car, err := h.cars.MarkAsSold(c.UserContext(), c.Params("id"), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(car)
}

func (h *handlers) deleteCar(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	res, err := h.cars.Remove(c.UserContext(), c.Params("id"), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *handlers) sell(c *fiber.Ctx) error {
	var form models.SellForm
	if err := parseJSON(c, &form); err != nil {
		return err
	}

	if err := h.notifications.SendSellInquiry(c.UserContext(), &form); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(messageResponse{Message: "Inquiry submitted successfully"})
}

func (h *handlers) enquiry(c *fiber.Ctx) error {
	var form models.EnquiryForm
	if err := parseJSON(c, &form); err != nil {
		return err
	}

	if err := h.notifications.SendEnquiry(c.UserContext(), &form); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(messageResponse{Message: "Enquiry submitted successfully"})
}

func (h *handlers) serveImage(c *fiber.Ctx) error {
	rc, err := h.imageStore.Open(c.UserContext(), c.Params("name"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.SendStream(rc)
}

func (h *handlers) healthz(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.healthTimeout)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		h.logger.Warn(ctx, "health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
