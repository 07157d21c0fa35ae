package api

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/xetrapulse/internal/domain/dto"
	"github.com/guttosm/xetrapulse/internal/ledger"
	"github.com/guttosm/xetrapulse/internal/middleware"
	"github.com/guttosm/xetrapulse/internal/objectstore"
	"github.com/guttosm/xetrapulse/internal/service"
)

var isinPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// Handler serves read access to the reports and the ledger.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Delegate to the query service
//   - Translate domain results into response DTOs
type Handler struct {
	svc service.QueryService
}

// NewHandler constructs a new Handler instance.
func NewHandler(svc service.QueryService) *Handler {
	return &Handler{svc: svc}
}

// GetLatestReport handles GET /api/v1/reports/latest requests.
//
// GetLatestReport godoc
// @Summary      Latest daily report
// @Description  Returns the rows of the newest report object, optionally restricted to one instrument
// @Tags         reports
// @Produce      json
// @Param        isin  query     string  false  "Instrument ISIN" example(DE0005190003)
// @Success      200   {object}  dto.ReportResponse  "Success"
// @Failure      400   {object}  dto.ErrorResponse   "Bad Request"
// @Failure      404   {object}  dto.ErrorResponse   "No report yet"
// @Failure      500   {object}  dto.ErrorResponse   "Internal Error"
// @Router       /api/v1/reports/latest [get]
func (h *Handler) GetLatestReport(c *gin.Context) {
	isin := strings.ToUpper(strings.TrimSpace(c.Query("isin")))
	if isin != "" && !isinPattern.MatchString(isin) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid isin, expected 12 characters like DE0005190003", nil))
		return
	}

	latest, err := h.svc.LatestReport(c.Request.Context(), isin)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse("no report found", err))
			return
		}
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to read report", err)
		return
	}

	resp := dto.ReportResponse{Key: latest.Key, Rows: make([]dto.ReportRow, 0, len(latest.Rows))}
	for _, r := range latest.Rows {
		resp.Rows = append(resp.Rows, dto.NewReportRow(r))
	}
	c.JSON(http.StatusOK, resp)
}

// GetLedger handles GET /api/v1/ledger requests.
//
// GetLedger godoc
// @Summary      Processing ledger
// @Description  Lists every processed source date with the date it was processed on
// @Tags         reports
// @Produce      json
// @Success      200  {object}  dto.LedgerResponse  "Success"
// @Failure      500  {object}  dto.ErrorResponse   "Internal Error"
// @Router       /api/v1/ledger [get]
func (h *Handler) GetLedger(c *gin.Context) {
	entries, err := h.svc.LedgerEntries(c.Request.Context())
	if err != nil {
		msg := "failed to read ledger"
		if errors.Is(err, ledger.ErrCorrupt) {
			msg = "ledger is corrupt"
		}
		middleware.AbortWithError(c, http.StatusInternalServerError, msg, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewLedgerResponse(entries))
}
