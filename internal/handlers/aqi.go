package handlers

import (
	"errors"
	"net/http"

	"aqi_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	errReadSensor     = "failed to read sensor data"
	errModelNotLoaded = "prediction model not loaded"
	errPredictFailed  = "prediction failed"

	errLoadReadings = "failed to load readings"
	errNoReadings   = "no readings recorded yet"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// predictionErrMessage maps a pipeline error to its public message. Stage
// detail stays in logs and metrics; clients only see which capability failed.
func predictionErrMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrSensorRead):
		return errReadSensor
	case errors.Is(err, service.ErrModelUnavailable):
		return errModelNotLoaded
	default:
		return errPredictFailed
	}
}

// @Summary      Health check
// @Description  Reports serial link and model availability plus the feature names a record must carry.
// @Tags         system
// @Produce      json
// @Success      200  {object}  models.HealthStatus
// @Router       /api/health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Health.Status(c.Request.Context()))
}

// @Summary      Current AQI prediction
// @Description  Reads one line from the sensor, runs the regression model and classifies the result. No caching: every call is a fresh sensor read.
// @Tags         aqi
// @Produce      json
// @Success      200  {object}  models.PredictionResult
// @Failure      500  {object}  map[string]string
// @Router       /api/aqi [get]
func (h *Handler) getAQI(c *gin.Context) {
	ctx := c.Request.Context()
	result, err := h.services.Prediction.Sample(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, predictionErrMessage(err), "aqi_sample_failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
