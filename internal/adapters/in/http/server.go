// Package http exposes the REST surface for clients, drivers and operators.
// Handlers translate JSON requests into commands and queries, and map
// domain outcomes onto HTTP status codes: precondition violations become
// 409, missing aggregates 404, malformed input 400.
package http

import (
	"errors"
	"net/http"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createOrder    *commands.CreateOrderCommandHandler
	acceptOffer    *commands.AcceptOfferCommandHandler
	refuseOffer    *commands.RefuseOfferCommandHandler
	reportProgress *commands.ReportOrderProgressCommandHandler
	completeOrder  *commands.CompleteOrderCommandHandler
	failOrder      *commands.FailOrderCommandHandler
	manuallyAssign *commands.ManuallyAssignOrderCommandHandler
	cancelOrder    *commands.CancelOrderCommandHandler
	createDriver   *commands.CreateDriverCommandHandler
	changeStatus   *commands.ChangeDriverStatusCommandHandler
	reportLocation *commands.ReportDriverLocationCommandHandler

	// Query handlers
	getUncompletedOrders queries.GetUncompletedOrdersQueryHandler
	getEscalatedOrders   queries.GetEscalatedOrdersQueryHandler
	getAllDrivers        queries.GetAllDriversQueryHandler
}

// ServerHandlers bundles the use case handlers the server routes to.
type ServerHandlers struct {
	CreateOrder    *commands.CreateOrderCommandHandler
	AcceptOffer    *commands.AcceptOfferCommandHandler
	RefuseOffer    *commands.RefuseOfferCommandHandler
	ReportProgress *commands.ReportOrderProgressCommandHandler
	CompleteOrder  *commands.CompleteOrderCommandHandler
	FailOrder      *commands.FailOrderCommandHandler
	ManuallyAssign *commands.ManuallyAssignOrderCommandHandler
	CancelOrder    *commands.CancelOrderCommandHandler
	CreateDriver   *commands.CreateDriverCommandHandler
	ChangeStatus   *commands.ChangeDriverStatusCommandHandler
	ReportLocation *commands.ReportDriverLocationCommandHandler

	GetUncompletedOrders queries.GetUncompletedOrdersQueryHandler
	GetEscalatedOrders   queries.GetEscalatedOrdersQueryHandler
	GetAllDrivers        queries.GetAllDriversQueryHandler
}

// NewServer creates an HTTP server routing to the given handlers.
func NewServer(handlers ServerHandlers) (*Server, error) {
	if handlers.CreateOrder == nil || handlers.AcceptOffer == nil ||
		handlers.RefuseOffer == nil || handlers.ReportProgress == nil ||
		handlers.CompleteOrder == nil || handlers.FailOrder == nil ||
		handlers.ManuallyAssign == nil || handlers.CancelOrder == nil ||
		handlers.CreateDriver == nil || handlers.ChangeStatus == nil ||
		handlers.ReportLocation == nil {
		return nil, errs.NewValueIsRequiredError("handlers")
	}

	return &Server{
		createOrder:          handlers.CreateOrder,
		acceptOffer:          handlers.AcceptOffer,
		refuseOffer:          handlers.RefuseOffer,
		reportProgress:       handlers.ReportProgress,
		completeOrder:        handlers.CompleteOrder,
		failOrder:            handlers.FailOrder,
		manuallyAssign:       handlers.ManuallyAssign,
		cancelOrder:          handlers.CancelOrder,
		createDriver:         handlers.CreateDriver,
		changeStatus:         handlers.ChangeStatus,
		reportLocation:       handlers.ReportLocation,
		getUncompletedOrders: handlers.GetUncompletedOrders,
		getEscalatedOrders:   handlers.GetEscalatedOrders,
		getAllDrivers:        handlers.GetAllDrivers,
	}, nil
}

// RegisterRoutes attaches all routes to the given echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	api := e.Group("/api/v1")

	api.POST("/orders", s.CreateOrder)
	api.POST("/orders/:orderId/accept", s.AcceptOffer)
	api.POST("/orders/:orderId/refuse", s.RefuseOffer)
	api.POST("/orders/:orderId/progress", s.ReportOrderProgress)
	api.POST("/orders/:orderId/complete", s.CompleteOrder)
	api.POST("/orders/:orderId/fail", s.FailOrder)
	api.POST("/orders/:orderId/assign", s.ManuallyAssignOrder)
	api.POST("/orders/:orderId/cancel", s.CancelOrder)
	api.GET("/orders/uncompleted", s.GetUncompletedOrders)
	api.GET("/orders/escalated", s.GetEscalatedOrders)

	api.POST("/drivers", s.CreateDriver)
	api.POST("/drivers/:driverId/status", s.ChangeDriverStatus)
	api.POST("/drivers/:driverId/location", s.ReportDriverLocation)
	api.GET("/drivers", s.GetDrivers)
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Precondition violations: the request is well-formed but the aggregate's
// current state forbids the transition.
var preconditionErrors = []error{
	order.ErrOrderIsNotPending,
	order.ErrOfferAlreadyOpen,
	order.ErrOrderAlreadyAssigned,
	order.ErrOfferDoesNotMatch,
	order.ErrOfferExpired,
	order.ErrDriverDoesNotMatch,
	driver.ErrDriverIsNotActive,
	driver.ErrDriverIsInWork,
	driver.ErrStatusIsNotSelectable,
}

func commandError(ctx echo.Context, err error) error {
	if errors.Is(err, errs.ErrObjectNotFound) {
		return ctx.JSON(http.StatusNotFound, errorResponse{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
	}

	for _, sentinel := range preconditionErrors {
		if errors.Is(err, sentinel) {
			return ctx.JSON(http.StatusConflict, errorResponse{
				Code:    http.StatusConflict,
				Message: err.Error(),
			})
		}
	}

	return ctx.JSON(http.StatusInternalServerError, errorResponse{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	})
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, errorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

func pathUUID(ctx echo.Context, param string) (kernel.UUID, error) {
	return kernel.UUIDFromString(ctx.Param(param))
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

type createOrderRequest struct {
	PickupAddress   string `json:"pickupAddress"`
	DeliveryAddress string `json:"deliveryAddress"`
	WeightGrams     int    `json:"weightGrams"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

// CreateOrder handles POST /api/v1/orders - registers a new delivery order.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var req createOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	orderID := kernel.NewUUID()

	cmd, err := commands.NewCreateOrderCommand(
		orderID, req.PickupAddress, req.DeliveryAddress, req.WeightGrams,
	)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.createOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return commandError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, createOrderResponse{ID: orderID.String()})
}

type driverActionRequest struct {
	DriverID string `json:"driverId"`
}

// AcceptOffer handles POST /api/v1/orders/:orderId/accept.
func (s *Server) AcceptOffer(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	var req driverActionRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	cmd, err := commands.NewAcceptOfferCommand(orderID, driverID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.acceptOffer.Handle(ctx.Request().Context(), cmd); err != nil {
		return commandError(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

// RefuseOffer handles POST /api/v1/orders/:orderId/refuse.
func (s *Server) RefuseOffer(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	var req driverActionRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	cmd, err := commands.NewRefuseOfferCommand(orderID, driverID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.refuseOffer.Handle(ctx.Request().Context(), cmd); err != nil {
		return commandError(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

type reportProgressRequest struct {
	DriverID  string  `json:"driverId"`
	Milestone string  `json:"milestone"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// ReportOrderProgress handles POST /api/v1/orders/:orderId/progress.
func (s *Server) ReportOrderProgress(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	var req reportProgressRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	milestone, err := order.StatusFromString(req.Milestone)
	if err != nil {
		return badRequest(ctx, "invalid milestone")
	}

	location, err := kernel.NewLocation(req.Lat, req.Lng)
	if err != nil {
		return badRequest(ctx, "invalid location")
	}

	cmd, err := commands.NewReportOrderProgressCommand(orderID, driverID, milestone, location)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.reportProgress.Handle(ctx.Request().Context(), cmd); err != nil {
		return commandError(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

// CompleteOrder handles POST /api/v1/orders/:orderId/complete.
func (s *Server) CompleteOrder(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	var req driverActionRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	cmd, err := commands.NewCompleteOrderCommand(orderID, driverID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.completeOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return commandError(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

type failOrderRequest struct {
	DriverID string `json:"driverId"`
	Reason   string `json:"reason"`
}

// FailOrder handles POST /api/v1/orders/:orderId/fail.
func (s *Server) FailOrder(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	var req failOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	cmd, err := commands.NewFailOrderCommand(orderID, driverID, req.Reason)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.failOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return commandError(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

type assignOrderRequest struct {
	DriverID string `json:"driverId"`
	ActorID  string `json:"actorId"`
}

// ManuallyAssignOrder handles POST /api/v1/orders/:orderId/assign - an
// operator directs a pending order to a chosen driver.
func (s *Server) ManuallyAssignOrder(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	var req assignOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	driverID, err := kernel.UUIDFromString(req.DriverID)
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	actorID, err := kernel.UUIDFromString(req.ActorID)
	if err != nil {
		return badRequest(ctx, "invalid actor id")
	}

	cmd, err := commands.NewManuallyAssignOrderCommand(orderID, driverID, actorID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.manuallyAssign.Handle(ctx.Request().Context(), cmd); err != nil {
		return commandError(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

type cancelOrderRequest struct {
	ActorID string `json:"actorId"`
}

// CancelOrder handles POST /api/v1/orders/:orderId/cancel - an operator
// cancels an order at any non-terminal point.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, err := pathUUID(ctx, "orderId")
	if err != nil {
		return badRequest(ctx, "invalid order id")
	}

	var req cancelOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	actorID, err := kernel.UUIDFromString(req.ActorID)
	if err != nil {
		return badRequest(ctx, "invalid actor id")
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, actorID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.cancelOrder.Handle(ctx.Request().Context(), cmd); err != nil {
		return commandError(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

type vehicleSpecRequest struct {
	Name          string `json:"name"`
	CapacityGrams int    `json:"capacityGrams"`
}

type createDriverRequest struct {
	Name      string               `json:"name"`
	Rating    float64              `json:"rating"`
	PushToken string               `json:"pushToken"`
	Vehicles  []vehicleSpecRequest `json:"vehicles"`
}

type createDriverResponse struct {
	ID string `json:"id"`
}

// CreateDriver handles POST /api/v1/drivers - registers a new driver with
// their vehicles.
func (s *Server) CreateDriver(ctx echo.Context) error {
	var req createDriverRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	driverID := kernel.NewUUID()

	vehicles := make([]commands.VehicleSpec, len(req.Vehicles))
	for i, v := range req.Vehicles {
		vehicles[i] = commands.VehicleSpec{Name: v.Name, CapacityGrams: v.CapacityGrams}
	}

	cmd, err := commands.NewCreateDriverCommand(
		driverID, req.Name, req.Rating, req.PushToken, vehicles,
	)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.createDriver.Handle(ctx.Request().Context(), cmd); err != nil {
		return commandError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, createDriverResponse{ID: driverID.String()})
}

type changeDriverStatusRequest struct {
	Status string `json:"status"`
}

// ChangeDriverStatus handles POST /api/v1/drivers/:driverId/status - a
// driver toggles their availability.
func (s *Server) ChangeDriverStatus(ctx echo.Context) error {
	driverID, err := pathUUID(ctx, "driverId")
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	var req changeDriverStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	status, err := driver.StatusFromString(req.Status)
	if err != nil {
		return badRequest(ctx, "invalid status")
	}

	cmd, err := commands.NewChangeDriverStatusCommand(driverID, status)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.changeStatus.Handle(ctx.Request().Context(), cmd); err != nil {
		return commandError(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

type reportLocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ReportDriverLocation handles POST /api/v1/drivers/:driverId/location - a
// driver's periodic position ping.
func (s *Server) ReportDriverLocation(ctx echo.Context) error {
	driverID, err := pathUUID(ctx, "driverId")
	if err != nil {
		return badRequest(ctx, "invalid driver id")
	}

	var req reportLocationRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "invalid request body")
	}

	location, err := kernel.NewLocation(req.Lat, req.Lng)
	if err != nil {
		return badRequest(ctx, "invalid location")
	}

	cmd, err := commands.NewReportDriverLocationCommand(driverID, location)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	if err := s.reportLocation.Handle(ctx.Request().Context(), cmd); err != nil {
		return commandError(ctx, err)
	}

	return ctx.NoContent(http.StatusOK)
}

type offerView struct {
	DriverID  string    `json:"driverId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type uncompletedOrderView struct {
	ID                     string     `json:"id"`
	Status                 string     `json:"status"`
	Offer                  *offerView `json:"offer,omitempty"`
	AssignedDriverID       *string    `json:"assignedDriverId,omitempty"`
	AssignmentAttemptCount int        `json:"assignmentAttemptCount"`
}

// GetUncompletedOrders handles GET /api/v1/orders/uncompleted.
func (s *Server) GetUncompletedOrders(ctx echo.Context) error {
	query := queries.NewGetUncompletedOrdersQuery()

	orders, err := s.getUncompletedOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "failed to retrieve uncompleted orders",
		})
	}

	response := make([]uncompletedOrderView, len(orders))
	for i, o := range orders {
		view := uncompletedOrderView{
			ID:                     o.ID.String(),
			Status:                 o.Status.String(),
			AssignmentAttemptCount: o.AssignmentAttemptCount,
		}
		if o.OfferedDriverID != nil && o.OfferExpiresAt != nil {
			view.Offer = &offerView{
				DriverID:  o.OfferedDriverID.String(),
				ExpiresAt: *o.OfferExpiresAt,
			}
		}
		if o.AssignedDriverID != nil {
			assigned := o.AssignedDriverID.String()
			view.AssignedDriverID = &assigned
		}
		response[i] = view
	}

	return ctx.JSON(http.StatusOK, response)
}

type escalatedOrderView struct {
	ID                     string    `json:"id"`
	PickupLat              float64   `json:"pickupLat"`
	PickupLng              float64   `json:"pickupLng"`
	AssignmentAttemptCount int       `json:"assignmentAttemptCount"`
	Reason                 string    `json:"reason"`
	CancelledAt            time.Time `json:"cancelledAt"`
}

// GetEscalatedOrders handles GET /api/v1/orders/escalated - orders the
// dispatcher gave up on, awaiting a human follow-up.
func (s *Server) GetEscalatedOrders(ctx echo.Context) error {
	query := queries.NewGetEscalatedOrdersQuery()

	orders, err := s.getEscalatedOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "failed to retrieve escalated orders",
		})
	}

	response := make([]escalatedOrderView, len(orders))
	for i, o := range orders {
		response[i] = escalatedOrderView{
			ID:                     o.ID.String(),
			PickupLat:              o.Pickup.Latitude(),
			PickupLng:              o.Pickup.Longitude(),
			AssignmentAttemptCount: o.AssignmentAttemptCount,
			Reason:                 o.Reason,
			CancelledAt:            o.CancelledAt,
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

type locationView struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ReportedAt time.Time `json:"reportedAt"`
}

type driverView struct {
	ID                    string        `json:"id"`
	Name                  string        `json:"name"`
	Rating                float64       `json:"rating"`
	Status                string        `json:"status"`
	Location              *locationView `json:"location,omitempty"`
	AssignmentsInProgress int           `json:"assignmentsInProgress"`
}

// GetDrivers handles GET /api/v1/drivers - the full driver roster.
func (s *Server) GetDrivers(ctx echo.Context) error {
	query := queries.NewGetAllDriversQuery()

	drivers, err := s.getAllDrivers.Handle(ctx.Request().Context(), query)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, errorResponse{
			Code:    http.StatusInternalServerError,
			Message: "failed to retrieve drivers",
		})
	}

	response := make([]driverView, len(drivers))
	for i, d := range drivers {
		view := driverView{
			ID:                    d.ID.String(),
			Name:                  d.Name,
			Rating:                d.Rating,
			Status:                d.Status.String(),
			AssignmentsInProgress: d.AssignmentsInProgress,
		}
		if d.Location != nil && d.LocationReportedAt != nil {
			view.Location = &locationView{
				Lat:        d.Location.Latitude(),
				Lng:        d.Location.Longitude(),
				ReportedAt: *d.LocationReportedAt,
			}
		}
		response[i] = view
	}

	return ctx.JSON(http.StatusOK, response)
}
