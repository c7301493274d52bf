package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/domain"
)

// ExportFilename is suggested to clients downloading the export.
const ExportFilename = "quotes.json"

// QuoteHandler handles quote, filter and sync endpoints.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

// ListQuotes handles GET /api/v1/quotes.
// Quotes are returned in insertion order, optionally narrowed by category.
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param category query string false "Category filter"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-500)"
// @Success 200 {object} dto.PageResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	offset, err := req.Offset()
	if err != nil {
		dto.Abort(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	quotes := dto.NewQuoteResponses(h.service.ListQuotes(req.Category))
	c.JSON(http.StatusOK, dto.Paginate(quotes, offset, req.GetLimit(), req.Category))
}

// AddQuote handles POST /api/v1/quotes.
//
// @Summary Add a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param quote body dto.AddQuoteRequest true "Quote"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req dto.AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	q, err := h.service.AddQuote(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(q))
}

// RandomQuote handles GET /api/v1/quotes/random.
// Without a category the selected filter applies. An empty pool is not an
// error; the quote is null.
//
// @Summary Pick a random quote
// @Tags quotes
// @Produce json
// @Param category query string false "Category, or all"
// @Success 200 {object} dto.RandomQuoteResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	var req dto.RandomQuoteRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	category := req.Category
	if category == "" {
		category = h.service.SelectedFilter()
	}

	resp := dto.RandomQuoteResponse{Category: category}

	if q, ok := h.service.PickRandom(c.Request.Context(), category); ok {
		qr := dto.NewQuoteResponse(q)
		resp.Quote = &qr
	}

	c.JSON(http.StatusOK, resp)
}

// LookupQuote handles GET /api/v1/quotes/lookup?text=.
//
// @Summary Find a quote by its text
// @Tags quotes
// @Produce json
// @Param text query string true "Quote text"
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/lookup [get]
func (h *QuoteHandler) LookupQuote(c *gin.Context) {
	var req dto.LookupRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	q, err := h.service.FindQuote(req.Text)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

// LastDisplayed handles GET /api/v1/quotes/last-displayed.
func (h *QuoteHandler) LastDisplayed(c *gin.Context) {
	q, ok := h.service.LastDisplayed(c.Request.Context())
	if !ok {
		dto.HandleError(c, domain.NewNotFoundError("displayed quote", "session"))
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

// Categories handles GET /api/v1/categories.
func (h *QuoteHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CategoriesResponse{Categories: h.service.UniqueCategories()})
}

// Export handles GET /api/v1/export, a pretty-printed JSON download.
func (h *QuoteHandler) Export(c *gin.Context) {
	data, err := h.service.ExportSnapshot(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// Import handles POST /api/v1/import. The body is a JSON array of quotes.
//
// @Summary Import quotes
// @Tags quotes
// @Accept json
// @Produce json
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Router /api/v1/import [post]
func (h *QuoteHandler) Import(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	result, err := h.service.ImportQuotes(c.Request.Context(), data)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewImportResponse(result))
}

// TriggerSync handles POST /api/v1/sync. It returns 409 while a run is in
// flight and 503 when the remote source failed.
//
// @Summary Reconcile with the remote source now
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncResultResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/sync [post]
func (h *QuoteHandler) TriggerSync(c *gin.Context) {
	result, err := h.service.TriggerSyncNow(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSyncResultResponse(result))
}

// SyncState handles GET /api/v1/sync.
func (h *QuoteHandler) SyncState(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSyncStateResponse(h.service.GetSyncState()))
}

// GetFilter handles GET /api/v1/filter.
func (h *QuoteHandler) GetFilter(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FilterResponse{Category: h.service.SelectedFilter()})
}

// SetFilter handles PUT /api/v1/filter. The category must be "all" or exist.
func (h *QuoteHandler) SetFilter(c *gin.Context) {
	var req dto.FilterRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.service.SetSelectedFilter(c.Request.Context(), req.Category); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FilterResponse{Category: req.Category})
}

// RegisterQuoteRoutes registers the API routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.AddQuote)
	quotes.GET("/random", h.RandomQuote)
	quotes.GET("/lookup", h.LookupQuote)
	quotes.GET("/last-displayed", h.LastDisplayed)

	rg.GET("/categories", h.Categories)
	rg.GET("/export", h.Export)
	rg.POST("/import", h.Import)

	rg.GET("/sync", h.SyncState)
	rg.POST("/sync", h.TriggerSync)

	rg.GET("/filter", h.GetFilter)
	rg.PUT("/filter", h.SetFilter)
}

// respondBindError writes the response for a failed bind or validation.
func respondBindError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError

	switch {
	case dto.IsValidationError(err):
		dto.RespondWithValidationErrors(c, dto.ValidationErrors(err))
	case errors.As(err, &maxBytes):
		dto.HandleError(c, err)
	default:
		dto.Abort(c, dto.ErrorCodeBadRequest, "malformed request")
	}
}
