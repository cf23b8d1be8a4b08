package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface lists the operations of the embedded OpenAPI document.
type ServerInterface interface {
	// (POST /api/v1/webhooks/vendors/{vendorId})
	ReceiveVendorSignal(ctx echo.Context, vendorID string, params ReceiveVendorSignalParams) error
	// (POST /api/v1/orders)
	CreateOrder(ctx echo.Context) error
	// (GET /api/v1/orders/on-hold)
	GetOnHoldOrders(ctx echo.Context) error
	// (GET /api/v1/orders/{orderId}/status)
	GetOrderStatus(ctx echo.Context, orderID string) error
	// (POST /api/v1/orders/{orderId}/actions)
	ApplyCustomerAction(ctx echo.Context, orderID string) error
}

// ReceiveVendorSignalParams are the signature headers of a webhook.
type ReceiveVendorSignalParams struct {
	XSignature          string
	XSignatureTimestamp string
}

const (
	HeaderSignature          = "X-Signature"
	HeaderSignatureTimestamp = "X-Signature-Timestamp"
)

// ServerInterfaceWrapper binds path and header parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) ReceiveVendorSignal(ctx echo.Context) error {
	var vendorID string
	if err := bindPath(ctx, "vendorId", &vendorID); err != nil {
		return err
	}

	// Missing headers are passed through empty and reported as signature failures.
	params := ReceiveVendorSignalParams{
		XSignature:          ctx.Request().Header.Get(HeaderSignature),
		XSignatureTimestamp: ctx.Request().Header.Get(HeaderSignatureTimestamp),
	}
	return w.Handler.ReceiveVendorSignal(ctx, vendorID, params)
}

func (w *ServerInterfaceWrapper) CreateOrder(ctx echo.Context) error {
	return w.Handler.CreateOrder(ctx)
}

func (w *ServerInterfaceWrapper) GetOnHoldOrders(ctx echo.Context) error {
	return w.Handler.GetOnHoldOrders(ctx)
}

func (w *ServerInterfaceWrapper) GetOrderStatus(ctx echo.Context) error {
	var orderID string
	if err := bindPath(ctx, "orderId", &orderID); err != nil {
		return err
	}
	return w.Handler.GetOrderStatus(ctx, orderID)
}

func (w *ServerInterfaceWrapper) ApplyCustomerAction(ctx echo.Context) error {
	var orderID string
	if err := bindPath(ctx, "orderId", &orderID); err != nil {
		return err
	}
	return w.Handler.ApplyCustomerAction(ctx, orderID)
}

func bindPath(ctx echo.Context, name string, dest *string) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return nil
}

// EchoRouter is the subset of *echo.Echo and *echo.Group used for registration.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers mounts every operation on router.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	w := &ServerInterfaceWrapper{Handler: si}

	router.POST("/api/v1/webhooks/vendors/:vendorId", w.ReceiveVendorSignal)
	router.POST("/api/v1/orders", w.CreateOrder)
	router.GET("/api/v1/orders/on-hold", w.GetOnHoldOrders)
	router.GET("/api/v1/orders/:orderId/status", w.GetOrderStatus)
	router.POST("/api/v1/orders/:orderId/actions", w.ApplyCustomerAction)
}
