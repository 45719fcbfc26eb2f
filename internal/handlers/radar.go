package handlers

import (
	"net/http"

	"bugbridge/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusCompleted = "completed"

	errInspectFailed   = "inspection failed"
	errCalibrateFailed = "calibration failed"
	errTrackFailed     = "tracking failed"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg, "detail": errDetail(err)})
}

// errDetail surfaces the underlying error text verbatim; the external
// package's stderr is the only diagnostic there is.
func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// InspectRequest is the payload for the array-inspection call.
type InspectRequest struct {
	// Numeric sequence to inspect
	Values []float64 `json:"values" binding:"required" example:"1,2,3"`
	// Free-text label echoed in the report
	Label string `json:"label" example:"lalal"`
}

// CalibrateRequest is the payload for one calibration run.
type CalibrateRequest struct {
	// Data timestamp YYYYmmddHHMM
	Timestamp string `json:"timestamp" binding:"required" example:"201307150230"`
	// Data type. Allowed: iris, nexrad, odim
	DataType string `json:"dtype" binding:"required" example:"iris"`
	// 3-letter station code
	Station string `json:"station" binding:"required" example:"xam"`
	// Hours of data to pull in
	DataHours int  `json:"data_hours" example:"6"`
	Debug     bool `json:"debug,omitempty"`
	Clear     bool `json:"clear,omitempty"`
	Plot      bool `json:"plot,omitempty"`
}

// TrackRequest is the payload for one tracking run.
type TrackRequest struct {
	Timestamp string `json:"timestamp" binding:"required" example:"201307150230"`
	DataType  string `json:"dtype" binding:"required" example:"iris"`
	Station   string `json:"station" binding:"required" example:"xam"`
	// Hours of data; 0 means closest scan only
	DataHours int `json:"data_hours" example:"0"`
	// Maximum range (km)
	RangeKm float64 `json:"range_km" example:"100"`
	Debug   bool    `json:"debug,omitempty"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Inspect a numeric sequence
// @Description  Relays the sequence to the external array-inspection utility and returns its report
// @Tags         radar
// @Accept       json
// @Produce      json
// @Param        body  body   InspectRequest  true  "Sequence payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/radar/inspect [post]
// @Security     BearerAuth
func (h *Handler) inspect(c *gin.Context) {
	var req InspectRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	ctx := c.Request.Context()
	report, err := h.services.Inspection.Inspect(ctx, service.InspectParams{
		Values: req.Values,
		Label:  req.Label,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errInspectFailed, "inspect_failed", err, "label", req.Label)
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary      Run calibration
// @Description  Triggers one external radar-calibration run; blocks until it exits
// @Tags         radar
// @Accept       json
// @Produce      json
// @Param        body  body   CalibrateRequest  true  "Calibration payload"
// @Success      200   {object}  map[string]interface{}  "status, run"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/radar/calibrate [post]
// @Security     BearerAuth
func (h *Handler) calibrate(c *gin.Context) {
	var req CalibrateRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	ctx := c.Request.Context()
	params := service.CalibrationParams{
		Timestamp: req.Timestamp,
		DataType:  req.DataType,
		Station:   req.Station,
		DataHours: req.DataHours,
		Debug:     req.Debug,
		Clear:     req.Clear,
		Plot:      req.Plot,
	}
	run, err := h.services.Calibration.Calibrate(ctx, params)
	if err != nil {
		// Validation errors never reach the external process; anything
		// with a recorded run is an external failure.
		if run.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errCalibrateFailed, "calibrate_failed", err, "run_id", run.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusCompleted, "run": run})
}

// @Summary      Run tracking
// @Description  Triggers one external radar-tracking run; blocks until it exits
// @Tags         radar
// @Accept       json
// @Produce      json
// @Param        body  body   TrackRequest  true  "Tracking payload"
// @Success      200   {object}  map[string]interface{}  "status, run"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/radar/track [post]
// @Security     BearerAuth
func (h *Handler) track(c *gin.Context) {
	var req TrackRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	ctx := c.Request.Context()
	params := service.TrackingParams{
		Timestamp: req.Timestamp,
		DataType:  req.DataType,
		Station:   req.Station,
		DataHours: req.DataHours,
		RangeKm:   req.RangeKm,
		Debug:     req.Debug,
	}
	run, err := h.services.Tracking.Track(ctx, params)
	if err != nil {
		if run.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errTrackFailed, "track_failed", err, "run_id", run.ID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusCompleted, "run": run})
}
