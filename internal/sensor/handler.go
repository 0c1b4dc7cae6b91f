package sensor

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"hydrozap/internal/common"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

var ingestFields = []string{"device_id", "temperature", "humidity", "ph", "ec", "tds", "waterLevel"}

// Ingest accepts a telemetry sample from device firmware
// POST /api/sensor-data/
func (h *Handler) Ingest(c *gin.Context) {
	// ShouldBindBodyWith keeps the body cached; the ingest rate limiter
	// already consumed it once to peek at device_id.
	var body map[string]any
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var missing []string
	for _, field := range ingestFields {
		if _, present := body[field]; !present {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Missing fields: %s", strings.Join(missing, ", "))})
		return
	}

	number := func(field string) float64 {
		value, _ := body[field].(float64)
		return value
	}
	deviceID, _ := body["device_id"].(string)
	reading := Reading{
		Temperature: number("temperature"),
		Humidity:    number("humidity"),
		PH:          number("ph"),
		EC:          number("ec"),
		TDS:         number("tds"),
		WaterLevel:  number("waterLevel"),
	}

	triggered, err := h.service.Ingest(c.Request.Context(), deviceID, reading)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	response := gin.H{"message": "Sensor data updated successfully"}
	if len(triggered) > 0 {
		response["alerts_triggered"] = len(triggered)
		response["alerts"] = triggered
	}
	c.JSON(http.StatusOK, response)
}

// Historical returns readings in a date range
// GET /api/sensor-data/:device_id/
func (h *Handler) Historical(c *gin.Context) {
	startStr := c.Query("start_date")
	endStr := c.Query("end_date")
	if startStr == "" || endStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both start_date and end_date are required"})
		return
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use ISO format (YYYY-MM-DDTHH:MM:SS.sss)"})
		return
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use ISO format (YYYY-MM-DDTHH:MM:SS.sss)"})
		return
	}

	sensorType := strings.ToLower(c.DefaultQuery("sensor_type", "all"))
	data, err := h.service.Historical(c.Request.Context(), c.Param("device_id"), start, end, sensorType)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sensor_data": data})
}

// DosingLogs returns pump dosing events
// GET /api/devices/:device_id/dosing-logs/
func (h *Handler) DosingLogs(c *gin.Context) {
	var start, end *time.Time
	if startStr := c.Query("start_date"); startStr != "" {
		parsed, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start_date format. Use ISO format (YYYY-MM-DDTHH:MM:SS.sss)"})
			return
		}
		start = &parsed
	}
	if endStr := c.Query("end_date"); endStr != "" {
		parsed, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end_date format. Use ISO format (YYYY-MM-DDTHH:MM:SS.sss)"})
			return
		}
		end = &parsed
	}

	logs, err := h.service.DosingLogs(c.Request.Context(), c.Param("device_id"), start, end)
	if err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// ActuatorData accepts a firmware actuator state sample
// POST /api/actuator-data/
func (h *Handler) ActuatorData(c *gin.Context) {
	var req struct {
		DeviceID    string `json:"device_id"`
		PumpStatus  any    `json:"pump_status"`
		LightStatus any    `json:"light_status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.DeviceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Device ID is required"})
		return
	}

	if err := h.service.RecordActuatorState(c.Request.Context(), req.DeviceID, req.PumpStatus, req.LightStatus); err != nil {
		c.JSON(common.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Actuator data updated successfully"})
}
