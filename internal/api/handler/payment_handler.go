package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/marketplace/internal/api/metrics"
	"github.com/coursehub/marketplace/internal/core/domain"
	"github.com/coursehub/marketplace/internal/core/ports"
)

const idempotencyHeader = "Idempotency-Key"

type PaymentHandler struct {
	service ports.PaymentService
}

func NewPaymentHandler(service ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type createPaymentRequest struct {
	UserID        string  `json:"user_id"`
	CourseID      string  `json:"course_id" validate:"required"`
	Amount        float64 `json:"amount" validate:"gte=0"`
	PaymentMethod string  `json:"payment_method" validate:"omitempty,oneof=stripe paypal"`
}

type chargePaymentRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

type createPaymentResponse struct {
	*domain.Payment
	ClientSecret string `json:"client_secret,omitempty"`
}

// Create handles POST /payment/create.
//
// @Summary      Start a course payment
// @Tags         payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Replays return the first payment"
// @Param        body             body      createPaymentRequest  true   "Payment"
// @Success      201              {object}  createPaymentResponse
// @Success      200              {object}  createPaymentResponse  "Idempotent replay"
// @Failure      404              {object}  map[string]string
// @Failure      409              {object}  map[string]string  "Same key still in flight"
// @Failure      502              {object}  map[string]string
// @Router       /payment/create [post]
func (h *PaymentHandler) Create(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req createPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.Create(c.Request().Context(), caller, ports.CreatePaymentInput{
		UserID:         req.UserID,
		CourseID:       req.CourseID,
		Amount:         req.Amount,
		Method:         domain.PaymentMethod(req.PaymentMethod),
		IdempotencyKey: c.Request().Header.Get(idempotencyHeader),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if res.AlreadyExisted {
		status = http.StatusOK
	} else {
		metrics.PaymentsCreatedTotal.WithLabelValues(string(res.Payment.Method)).Inc()
	}
	return c.JSON(status, createPaymentResponse{Payment: res.Payment, ClientSecret: res.ClientSecret})
}

// Get handles GET /payment/:id.
//
// @Summary      Get a payment
// @Tags         payment
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Payment id"
// @Success      200  {object}  domain.Payment
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /payment/{id} [get]
func (h *PaymentHandler) Get(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	p, err := h.service.Get(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateStatus handles POST /payment/update/:id/status?status=.
//
// @Summary      Override a payment status
// @Tags         payment
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true  "Payment id"
// @Param        status  query     string  true  "completed or failed"
// @Success      200     {object}  domain.Payment
// @Failure      422     {object}  map[string]string
// @Router       /payment/update/{id}/status [post]
func (h *PaymentHandler) UpdateStatus(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	status := domain.PaymentStatus(c.QueryParam("status"))

	p, err := h.service.UpdateStatus(c.Request().Context(), caller, c.Param("id"), status)
	if err != nil {
		return err
	}
	metrics.PaymentStatusTotal.WithLabelValues(string(p.Status)).Inc()
	return c.JSON(http.StatusOK, p)
}

// Charge handles POST /payment/:id/charge.
//
// @Summary      Confirm a payment with a payment method
// @Tags         payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Payment id"
// @Param        body  body      chargePaymentRequest  true  "Processor payment method"
// @Success      200   {object}  domain.Payment
// @Failure      422   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /payment/{id}/charge [post]
func (h *PaymentHandler) Charge(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req chargePaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.Charge(c.Request().Context(), caller, c.Param("id"), req.PaymentMethod)
	if err != nil {
		return err
	}
	metrics.PaymentStatusTotal.WithLabelValues(string(p.Status)).Inc()
	return c.JSON(http.StatusOK, p)
}

// Sync handles POST /payment/:id/sync.
//
// @Summary      Refresh a payment from the gateway
// @Tags         payment
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Payment id"
// @Success      200  {object}  domain.Payment
// @Failure      502  {object}  map[string]string
// @Router       /payment/{id}/sync [post]
func (h *PaymentHandler) Sync(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	p, err := h.service.Sync(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
