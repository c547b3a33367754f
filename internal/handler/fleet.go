package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleetpool/api/internal/model"
	"fleetpool/api/internal/service"
)

// FleetHandler exposes the fleet core operations: the visible vehicle
// board, pickup, return and the random assignment lottery.
type FleetHandler struct {
	fleetService *service.FleetService
	db           *gorm.DB
}

// NewFleetHandler creates a new fleet handler
func NewFleetHandler(fleetService *service.FleetService, db *gorm.DB) *FleetHandler {
	return &FleetHandler{fleetService: fleetService, db: db}
}

// RegisterRoutes 注册路由
func (h *FleetHandler) RegisterRoutes(r *gin.RouterGroup) {
	fleet := r.Group("/fleet")
	{
		fleet.GET("/vehicles", h.ListVisible)
		fleet.POST("/vehicles/:code/pickup", h.Pickup)
		fleet.POST("/vehicles/:code/return", h.Return)
		fleet.GET("/vehicles/:code/movements", h.VehicleHistory)
		fleet.POST("/assignments/random", h.AssignRandom)
	}
}

// userContext loads the authenticated user's row and builds the explicit
// context the core operates on.
func (h *FleetHandler) userContext(c *gin.Context) (model.UserContext, bool) {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return model.UserContext{}, false
	}

	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return model.UserContext{}, false
	}
	return user.Context(), true
}

// ListVisible returns the vehicles the user may see, with availability
// @Summary List visible vehicles
// @Description Vehicles visible to the requesting user, with derived availability and action flags
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.VehicleView
// @Failure 401 {object} map[string]string
// @Router /fleet/vehicles [get]
func (h *FleetHandler) ListVisible(c *gin.Context) {
	user, ok := h.userContext(c)
	if !ok {
		return
	}

	views, err := h.fleetService.ListVisibleVehicles(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"list":  views,
		"total": len(views),
	})
}

// Pickup records a pickup on a vehicle
// @Summary Pick up a vehicle
// @Tags Fleet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Vehicle code"
// @Param body body model.PickupRequest false "Notes and optional coordinates"
// @Success 201 {object} model.Movement
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /fleet/vehicles/{code}/pickup [post]
func (h *FleetHandler) Pickup(c *gin.Context) {
	user, ok := h.userContext(c)
	if !ok {
		return
	}

	var req model.PickupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	movement, err := h.fleetService.Pickup(c.Request.Context(), user, c.Param("code"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

// Return records a return on a vehicle
// @Summary Return a vehicle
// @Tags Fleet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param code path string true "Vehicle code"
// @Param body body model.PickupRequest false "Notes and optional coordinates"
// @Success 201 {object} model.Movement
// @Failure 403 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /fleet/vehicles/{code}/return [post]
func (h *FleetHandler) Return(c *gin.Context) {
	user, ok := h.userContext(c)
	if !ok {
		return
	}

	var req model.PickupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	movement, err := h.fleetService.Return(c.Request.Context(), user, c.Param("code"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

// AssignRandom draws a random available vehicle for the user
// @Summary Random vehicle assignment
// @Description Draw one vehicle uniformly at random from the available pool and record the pickup
// @Tags Fleet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.RandomAssignRequest false "Optional section filter"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /fleet/assignments/random [post]
func (h *FleetHandler) AssignRandom(c *gin.Context) {
	user, ok := h.userContext(c)
	if !ok {
		return
	}

	var req model.RandomAssignRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	vehicle, movement, err := h.fleetService.AssignRandom(c.Request.Context(), user, req.SectionID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"vehicle":  vehicle,
		"movement": movement,
	})
}

// VehicleHistory returns a vehicle's movements within a window
// @Summary Vehicle movement history
// @Tags Fleet
// @Produce json
// @Security BearerAuth
// @Param code path string true "Vehicle code"
// @Param start_time query string false "RFC3339 window start"
// @Param end_time query string false "RFC3339 window end"
// @Success 200 {array} model.Movement
// @Failure 403 {object} map[string]string
// @Router /fleet/vehicles/{code}/movements [get]
func (h *FleetHandler) VehicleHistory(c *gin.Context) {
	user, ok := h.userContext(c)
	if !ok {
		return
	}

	end := time.Now()
	start := end.AddDate(0, -1, 0)
	if s := c.Query("start_time"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			start = t
		}
	}
	if s := c.Query("end_time"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			end = t
		}
	}

	movements, err := h.fleetService.History(c.Request.Context(), user, c.Param("code"), start, end, 500)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}
