package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"eatsy/internal/delivery/http/middleware"
	"eatsy/internal/delivery/http/response"
	"eatsy/internal/domain/repository"
	"eatsy/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// dishImageSizeLimit bounds uploaded dish photos.
const dishImageSizeLimit = 5 << 20 // 5 MiB

// CatalogHandler holds dependencies for dish catalog and discovery handlers.
type CatalogHandler struct {
	uc     usecase.CatalogUsecase
	logger *slog.Logger
}

// NewCatalogHandler is the constructor for CatalogHandler, injected by Fx.
func NewCatalogHandler(uc usecase.CatalogUsecase, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		uc:     uc,
		logger: logger,
	}
}

type createDishRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       int64    `json:"price" validate:"required,gt=0"`
	Tags        []string `json:"tags"`
	Available   bool     `json:"available"`
}

type updateDishRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *int64   `json:"price"`
	Tags        []string `json:"tags"`
	Available   *bool    `json:"available"`
}

// ListDishes returns dishes matching the query filters.
func (h *CatalogHandler) ListDishes(c echo.Context) error {
	var filter repository.DishListFilter

	if cookIDParam := c.QueryParam("cook_id"); cookIDParam != "" {
		cookID, err := uuid.Parse(cookIDParam)
		if err != nil {
			return response.BadRequest(c, "INVALID_INPUT", "Invalid cook ID")
		}
		filter.CookID = cookID
	}
	filter.Tag = c.QueryParam("tag")
	filter.OnlyAvailable = c.QueryParam("available") == "true"

	dishes, err := h.uc.ListDishes(c.Request().Context(), filter)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, dishes)
}

// GetDish returns a single dish by ID.
func (h *CatalogHandler) GetDish(c echo.Context) error {
	dishID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid dish ID")
	}

	dish, err := h.uc.GetDish(c.Request().Context(), dishID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, dish)
}

// CreateDish publishes a new dish owned by the current cook.
func (h *CatalogHandler) CreateDish(c echo.Context) error {
	cookID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req createDishRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid dish input")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	dish, err := h.uc.CreateDish(c.Request().Context(), &usecase.CreateDishInput{
		CookID:      cookID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Tags:        req.Tags,
		Available:   req.Available,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, dish)
}

// UpdateDish modifies a dish owned by the current cook.
func (h *CatalogHandler) UpdateDish(c echo.Context) error {
	cookID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	dishID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid dish ID")
	}

	var req updateDishRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid dish input")
	}

	dish, err := h.uc.UpdateDish(c.Request().Context(), &usecase.UpdateDishInput{
		CookID:      cookID,
		DishID:      dishID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Tags:        req.Tags,
		Available:   req.Available,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, dish)
}

// DeleteDish removes a dish owned by the current cook.
func (h *CatalogHandler) DeleteDish(c echo.Context) error {
	cookID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	dishID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid dish ID")
	}

	if err := h.uc.DeleteDish(c.Request().Context(), cookID, dishID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]string{"message": "Dish deleted"})
}

// UploadDishImage stores a dish photo sent as multipart form data.
func (h *CatalogHandler) UploadDishImage(c echo.Context) error {
	cookID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	dishID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid dish ID")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Image file is required")
	}
	if fileHeader.Size > dishImageSizeLimit {
		return response.BadRequest(c, "IMAGE_TOO_LARGE", "Image exceeds the size limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errors.Wrap(err, "failed to open uploaded image")
	}
	defer file.Close()

	dish, err := h.uc.UploadDishImage(c.Request().Context(), &usecase.UploadDishImageInput{
		CookID:      cookID,
		DishID:      dishID,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, dish)
}

// NearbyCooks lists cooks around a query point, closest first.
func (h *CatalogHandler) NearbyCooks(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid latitude")
	}

	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		return response.BadRequest(c, "INVALID_INPUT", "Invalid longitude")
	}

	var radiusKm float64
	if radiusParam := c.QueryParam("radius_km"); radiusParam != "" {
		radiusKm, err = strconv.ParseFloat(radiusParam, 64)
		if err != nil || radiusKm < 0 {
			return response.BadRequest(c, "INVALID_INPUT", "Invalid radius")
		}
	}

	cooks, err := h.uc.NearbyCooks(c.Request().Context(), &usecase.NearbyCooksInput{
		Latitude:  lat,
		Longitude: lng,
		RadiusKm:  radiusKm,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, cooks)
}
