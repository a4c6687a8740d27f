package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/opsdash-tides/internal/adapter/store"
	"go.ngs.io/opsdash-tides/internal/usecase"
)

const defaultInterval = 10 * time.Minute

// Handler handles HTTP requests for tide predictions.
type Handler struct {
	predictionUC *usecase.PredictionUseCase
	logger       *slog.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(predictionUC *usecase.PredictionUseCase, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		predictionUC: predictionUC,
		logger:       logger,
	}
}

// GetPredictions handles GET /v1/tides/predictions.
func (h *Handler) GetPredictions(c *gin.Context) {
	loc, err := parseLocation(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	req := usecase.PredictionRequest{Location: loc}

	startStr := c.Query("start")
	endStr := c.Query("end")
	if startStr == "" {
		badRequest(c, errors.New("start parameter is required"))
		return
	}
	if endStr == "" {
		badRequest(c, errors.New("end parameter is required"))
		return
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid start time (expected RFC3339): %w", err))
		return
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid end time (expected RFC3339): %w", err))
		return
	}
	req.Start = start.UTC()
	req.End = end.UTC()

	req.Interval = defaultInterval
	if s := c.Query("interval"); s != "" {
		interval, err := time.ParseDuration(s)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid interval: %w", err))
			return
		}
		req.Interval = interval
	}

	if req.DisableLatitudeCorrection, err = latitudeCorrectionDisabled(c); err != nil {
		badRequest(c, err)
		return
	}

	response, err := h.predictionUC.Execute(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetNow handles GET /v1/tides/now.
func (h *Handler) GetNow(c *gin.Context) {
	loc, err := parseLocation(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	req := usecase.NowRequest{Location: loc}

	if s := c.Query("at"); s != "" {
		at, err := time.Parse(time.RFC3339, s)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid at time (expected RFC3339): %w", err))
			return
		}
		req.At = at.UTC()
	}
	if req.DisableLatitudeCorrection, err = latitudeCorrectionDisabled(c); err != nil {
		badRequest(c, err)
		return
	}

	response, err := h.predictionUC.Now(req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetStations handles GET /v1/stations.
func (h *Handler) GetStations(c *gin.Context) {
	stations, err := h.predictionUC.ListStations()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stations": stations,
		"count":    len(stations),
	})
}

// ConstituentListResponse is the response for listing constituents.
type ConstituentListResponse struct {
	Name               string         `json:"name"`
	FrequencyRadPerDay float64        `json:"frequency_rad_per_day"`
	SpeedDegPerHr      float64        `json:"speed_deg_per_hr"`
	PeriodHours        float64        `json:"period_hours,omitempty"`
	Components         map[string]int `json:"components,omitempty"`
	Description        string         `json:"description,omitempty"`
}

var descriptions = map[string]string{
	"M2":  "Principal lunar semidiurnal",
	"S2":  "Principal solar semidiurnal",
	"N2":  "Larger lunar elliptic semidiurnal",
	"K2":  "Lunisolar semidiurnal",
	"K1":  "Lunisolar diurnal",
	"O1":  "Principal lunar diurnal",
	"P1":  "Principal solar diurnal",
	"Q1":  "Larger lunar elliptic diurnal",
	"M4":  "Shallow water overtide of M2",
	"M6":  "Shallow water overtide of M2",
	"MS4": "Shallow water quarter diurnal",
	"MN4": "Shallow water quarter diurnal",
	"MF":  "Lunisolar fortnightly",
	"MM":  "Lunar monthly",
	"SSA": "Solar semiannual",
	"SA":  "Solar annual",
}

// GetConstituentsList returns a detailed list of all constituents.
func (h *Handler) GetConstituentsList(c *gin.Context) {
	constituents := h.predictionUC.GetAllConstituents()

	response := make([]ConstituentListResponse, len(constituents))
	for i, d := range constituents {
		response[i] = ConstituentListResponse{
			Name:               d.Name,
			FrequencyRadPerDay: d.FrequencyRadPerDay,
			SpeedDegPerHr:      d.SpeedDegPerHr(),
			PeriodHours:        d.Period().Hours(),
			Components:         d.Components,
			Description:        descriptions[d.Name],
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"constituents": response,
		"count":        len(response),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case usecase.IsUserError(err):
		badRequest(c, err)
	case errors.Is(err, store.ErrStationNotFound), errors.Is(err, store.ErrUnsupported):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func parseLocation(c *gin.Context) (usecase.Location, error) {
	var loc usecase.Location
	if id := c.Query("station_id"); id != "" {
		loc.StationID = &id
	}
	if s := c.Query("lat"); s != "" {
		lat, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return loc, fmt.Errorf("invalid latitude: %w", err)
		}
		loc.Lat = &lat
	}
	if s := c.Query("lon"); s != "" {
		lon, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return loc, fmt.Errorf("invalid longitude: %w", err)
		}
		loc.Lon = &lon
	}
	return loc, nil
}

func latitudeCorrectionDisabled(c *gin.Context) (bool, error) {
	s := c.Query("latitude_correction")
	if s == "" {
		return false, nil
	}
	on, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid latitude_correction: %w", err)
	}
	return !on, nil
}
