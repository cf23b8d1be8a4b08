// Package http is the echo ingress: vendor webhooks, customer actions and status reads.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
)

// maxWebhookBodyBytes is one byte over the command's payload limit so that oversized
// bodies are detected instead of silently truncated.
const maxWebhookBodyBytes = 64<<10 + 1

type (
	VendorSignalHandler interface {
		Handle(ctx context.Context, cmd commands.ReconcileVendorSignalCommand) (commands.ReconcileResult, error)
	}

	CustomerActionHandler interface {
		Handle(ctx context.Context, cmd commands.ApplyCustomerActionCommand) (commands.ReconcileResult, error)
	}

	CreateOrderHandler interface {
		Handle(ctx context.Context, cmd commands.CreateOrderCommand) error
	}

	OrderStatusHandler interface {
		Handle(ctx context.Context, query queries.GetOrderStatusQuery) (queries.OrderStatusResponse, error)
	}

	OnHoldOrdersHandler interface {
		Handle(ctx context.Context, query queries.GetOnHoldOrdersQuery) ([]queries.OrderStatusResponse, error)
	}
)

// Server implements ServerInterface on top of the application use cases.
type Server struct {
	// Command handlers
	vendorSignalHandler   VendorSignalHandler
	customerActionHandler CustomerActionHandler
	createOrderHandler    CreateOrderHandler

	// Query handlers
	orderStatusHandler  OrderStatusHandler
	onHoldOrdersHandler OnHoldOrdersHandler

	validator *BodyValidator
	logger    *slog.Logger
	now       func() time.Time
}

func NewServer(
	vendorSignalHandler VendorSignalHandler,
	customerActionHandler CustomerActionHandler,
	createOrderHandler CreateOrderHandler,
	orderStatusHandler OrderStatusHandler,
	onHoldOrdersHandler OnHoldOrdersHandler,
	validator *BodyValidator,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		vendorSignalHandler:   vendorSignalHandler,
		customerActionHandler: customerActionHandler,
		createOrderHandler:    createOrderHandler,
		orderStatusHandler:    orderStatusHandler,
		onHoldOrdersHandler:   onHoldOrdersHandler,
		validator:             validator,
		logger:                logger.With("component", "http_server"),
		now:                   time.Now,
	}
}

// ReconciliationData is the payload of a reconciliation response. InternalStatus is
// the status after a successful signal; CurrentStatus is the unchanged status of a
// rejected one, when known.
type ReconciliationData struct {
	OrderID        string `json:"orderId,omitempty"`
	VendorID       string `json:"vendorId,omitempty"`
	VendorStatus   string `json:"vendorStatus,omitempty"`
	Event          string `json:"event,omitempty"`
	PreviousStatus string `json:"previousStatus,omitempty"`
	InternalStatus string `json:"internalStatus,omitempty"`
	CurrentStatus  string `json:"currentStatus,omitempty"`
	Replayed       bool   `json:"replayed"`
	NotifyCustomer bool   `json:"notifyCustomer"`
	Attempts       int    `json:"attempts,omitempty"`
}

// OrderStatusData is the payload of status reads.
type OrderStatusData struct {
	OrderID           string     `json:"orderId"`
	VendorID          string     `json:"vendorId"`
	Status            string     `json:"status"`
	HoldReason        string     `json:"holdReason,omitempty"`
	OnHold            bool       `json:"onHold"`
	Final             bool       `json:"final"`
	Version           int64      `json:"version"`
	TrackingNumber    string     `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type createOrderRequest struct {
	OrderID  string `json:"orderId"`
	VendorID string `json:"vendorId"`
}

type customerActionRequest struct {
	Event string `json:"event"`
}

// ReceiveVendorSignal handles POST /api/v1/webhooks/vendors/{vendorId}.
func (s *Server) ReceiveVendorSignal(c echo.Context, rawVendorID string, params ReceiveVendorSignalParams) error {
	vendorID, err := kernel.NewVendorID(rawVendorID)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, commands.FailureMalformedSignal.String(), err.Error(), nil)
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodyBytes))
	if err != nil {
		return s.fail(c, http.StatusBadRequest, commands.FailureMalformedSignal.String(), "Failed to read request body", nil)
	}

	cmd, err := commands.NewReconcileVendorSignalCommand(vendorID, body, params.XSignature, params.XSignatureTimestamp)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, commands.FailureMalformedSignal.String(), err.Error(), nil)
	}

	result, err := s.vendorSignalHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.internalError(c, "Failed to reconcile vendor signal", err)
	}
	return s.reconciled(c, result)
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := s.decodeBody(c, schemaCreateOrderRequest, &req); err != nil {
		return s.fail(c, http.StatusBadRequest, codeBadRequest, err.Error(), nil)
	}

	orderID, err := kernel.UUIDFromString(req.OrderID)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, codeBadRequest, err.Error(), nil)
	}
	vendorID, err := kernel.NewVendorID(req.VendorID)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, codeBadRequest, err.Error(), nil)
	}

	cmd, err := commands.NewCreateOrderCommand(orderID, vendorID)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, codeBadRequest, err.Error(), nil)
	}

	if err = s.createOrderHandler.Handle(c.Request().Context(), cmd); err != nil {
		status, code := errorStatus(err)
		if status == http.StatusInternalServerError {
			return s.internalError(c, "Failed to create order", err)
		}
		return s.fail(c, status, code, err.Error(), nil)
	}

	return s.ok(c, http.StatusCreated, OrderStatusData{
		OrderID:   orderID.String(),
		VendorID:  vendorID.String(),
		Status:    order.Pending.String(),
		Version:   1,
		UpdatedAt: s.now().UTC(),
	})
}

// ApplyCustomerAction handles POST /api/v1/orders/{orderId}/actions.
func (s *Server) ApplyCustomerAction(c echo.Context, rawOrderID string) error {
	orderID, err := kernel.UUIDFromString(rawOrderID)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, codeBadRequest, err.Error(), nil)
	}

	var req customerActionRequest
	if err = s.decodeBody(c, schemaCustomerActionRequest, &req); err != nil {
		return s.fail(c, http.StatusBadRequest, codeBadRequest, err.Error(), nil)
	}

	cmd, err := commands.NewApplyCustomerActionCommand(orderID, req.Event)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, codeBadRequest, err.Error(), nil)
	}

	result, err := s.customerActionHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.internalError(c, "Failed to apply customer action", err)
	}
	return s.reconciled(c, result)
}

// GetOrderStatus handles GET /api/v1/orders/{orderId}/status.
func (s *Server) GetOrderStatus(c echo.Context, rawOrderID string) error {
	orderID, err := kernel.UUIDFromString(rawOrderID)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, codeBadRequest, err.Error(), nil)
	}

	query, err := queries.NewGetOrderStatusQuery(orderID)
	if err != nil {
		return s.fail(c, http.StatusBadRequest, codeBadRequest, err.Error(), nil)
	}

	status, err := s.orderStatusHandler.Handle(c.Request().Context(), query)
	if err != nil {
		code, name := errorStatus(err)
		if code == http.StatusInternalServerError {
			return s.internalError(c, "Failed to retrieve order status", err)
		}
		return s.fail(c, code, name, err.Error(), nil)
	}

	return s.ok(c, http.StatusOK, newOrderStatusData(status))
}

// GetOnHoldOrders handles GET /api/v1/orders/on-hold.
func (s *Server) GetOnHoldOrders(c echo.Context) error {
	orders, err := s.onHoldOrdersHandler.Handle(c.Request().Context(), queries.NewGetOnHoldOrdersQuery())
	if err != nil {
		return s.internalError(c, "Failed to retrieve on-hold orders", err)
	}

	response := make([]OrderStatusData, len(orders))
	for i, o := range orders {
		response[i] = newOrderStatusData(o)
	}
	return s.ok(c, http.StatusOK, response)
}

func (s *Server) reconciled(c echo.Context, result commands.ReconcileResult) error {
	data := ReconciliationData{
		VendorID:       result.VendorID.String(),
		VendorStatus:   result.RawStatus,
		Event:          result.Event.String(),
		Replayed:       result.Replayed,
		NotifyCustomer: result.NotifyCustomer,
		Attempts:       result.Attempts,
	}
	if result.OrderID.Validate() == nil {
		data.OrderID = result.OrderID.String()
	}
	if result.PreviousStatus.Validate() == nil {
		data.PreviousStatus = result.PreviousStatus.String()
	}

	if result.Success {
		data.InternalStatus = result.InternalStatus.String()
		return s.ok(c, http.StatusOK, data)
	}

	if result.CurrentStatus.Validate() == nil {
		data.CurrentStatus = result.CurrentStatus.String()
	}
	message := result.Failure.String()
	if result.Error != nil {
		message = result.Error.Error()
	}
	return s.fail(c, failureStatus(result.Failure), result.Failure.String(), message, data)
}

func (s *Server) internalError(c echo.Context, message string, err error) error {
	s.logger.ErrorContext(c.Request().Context(), message,
		"method", c.Request().Method, "path", c.Path(), "error", err)
	return s.fail(c, http.StatusInternalServerError, codeInternalError, message, nil)
}

// decodeBody validates the JSON body against schema and decodes it into dest.
func (s *Server) decodeBody(c echo.Context, schema string, dest any) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return errors.New("failed to read request body")
	}
	if err = s.validator.Validate(schema, raw); err != nil {
		return err
	}
	if err = json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func newOrderStatusData(r queries.OrderStatusResponse) OrderStatusData {
	return OrderStatusData{
		OrderID:           r.ID.String(),
		VendorID:          r.VendorID,
		Status:            r.Status,
		HoldReason:        r.HoldReason,
		OnHold:            r.IsOnHold,
		Final:             r.IsFinal,
		Version:           r.Version,
		TrackingNumber:    r.TrackingNumber,
		EstimatedDelivery: r.EstimatedDelivery,
		UpdatedAt:         r.UpdatedAt,
	}
}
