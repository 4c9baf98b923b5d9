package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"suilotto/internal/models"
	"suilotto/internal/services"
	"suilotto/internal/wallet"
)

// HTTPHandler exposes the read views and the four actions as a JSON API for
// presentation components. It owns no state: reads go straight to the
// ledger, writes go through the orchestrator, and pollers get kicked after
// every write so the next render sees the mutation sooner.
type HTTPHandler struct {
	reader  *services.StateReader
	actions *services.ActionOrchestrator
	current *services.CurrentLottery
	pollers []*services.Poller
}

// NewHTTPHandler creates a new HTTPHandler. The pollers are kicked after
// each submitted action.
func NewHTTPHandler(reader *services.StateReader, actions *services.ActionOrchestrator, current *services.CurrentLottery, pollers ...*services.Poller) *HTTPHandler {
	return &HTTPHandler{reader: reader, actions: actions, current: current, pollers: pollers}
}

// RegisterRoutes registers all the application routes.
func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/lotteries", h.ListActive)
	router.GET("/api/admin/lotteries", h.ListAdmin)
	router.GET("/api/refunds", h.ListRefundable)
	router.GET("/api/lottery", h.ShowCurrent)
	router.PUT("/api/lottery", h.SelectCurrent)
	router.POST("/api/lotteries", h.Create)
	router.POST("/api/lotteries/:id/tickets", h.Buy)
	router.POST("/api/lotteries/:id/draw", h.Draw)
	router.POST("/api/lotteries/:id/refund", h.Refund)
}

// lotteryView shapes one snapshot for the UI, derived fields included.
// wallet may be empty; then the per-wallet fields stay zero.
func lotteryView(l *models.Lottery, walletAddr string) gin.H {
	now := time.Now()
	view := gin.H{
		"id":              l.ID,
		"ticketPrice":     l.TicketPrice,
		"ticketPriceSui":  models.MistToSui(l.TicketPrice),
		"balance":         l.Balance,
		"poolSui":         models.MistToSui(l.Balance),
		"deadline":        l.Deadline,
		"status":          l.Status.String(),
		"expired":         l.IsExpired(now),
		"drawable":        l.IsDrawable(now),
		"tickets":         l.Tickets(),
		"players":         l.UniquePlayers(),
		"expectedWinners": l.ExpectedWinners(),
		"winners":         l.Winners,
		"adminFeeBps":     l.AdminFeeBps,
	}
	if walletAddr != "" {
		view["yourTickets"] = l.TicketsHeldBy(walletAddr)
		view["refundable"] = l.IsRefundable(now, walletAddr)
	}
	return view
}

// listViews renders a list; read-path errors degrade to an empty list, the
// UI tree never sees them.
func (h *HTTPHandler) listViews(c *gin.Context, lotteries []*models.Lottery, err error, walletAddr string) {
	if err != nil {
		logger.Warningf("list lotteries: %v", err)
		c.JSON(http.StatusOK, gin.H{"lotteries": []gin.H{}})
		return
	}
	views := make([]gin.H, 0, len(lotteries))
	for _, l := range lotteries {
		views = append(views, lotteryView(l, walletAddr))
	}
	c.JSON(http.StatusOK, gin.H{"lotteries": views})
}

// ListActive handles the public listing: open and unexpired.
func (h *HTTPHandler) ListActive(c *gin.Context) {
	lotteries, err := h.reader.ActiveLotteries(c.Request.Context())
	h.listViews(c, lotteries, err, "")
}

// ListAdmin handles the admin backlog: every open lottery, expired or not.
func (h *HTTPHandler) ListAdmin(c *gin.Context) {
	lotteries, err := h.reader.AdminLotteries(c.Request.Context())
	h.listViews(c, lotteries, err, "")
}

// ListRefundable handles the refund view for one wallet.
func (h *HTTPHandler) ListRefundable(c *gin.Context) {
	walletAddr := c.Query("wallet")
	if !validID(walletAddr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wallet must be a 0x address"})
		return
	}
	lotteries, err := h.reader.RefundableLotteries(c.Request.Context(), walletAddr)
	h.listViews(c, lotteries, err, walletAddr)
}

// ShowCurrent handles the single-lottery detail for the current pointer.
// A stale or unset pointer renders as a null lottery, not an error.
func (h *HTTPHandler) ShowCurrent(c *gin.Context) {
	id := h.current.ID()
	if id == "" {
		c.JSON(http.StatusOK, gin.H{"id": nil, "lottery": nil})
		return
	}
	lot, err := h.reader.Lottery(c.Request.Context(), id)
	if err != nil {
		logger.Warningf("lottery %s: %v", id, err)
	}
	if lot == nil {
		c.JSON(http.StatusOK, gin.H{"id": id, "lottery": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "lottery": lotteryView(lot, "")})
}

// SelectCurrent handles manual pointer entry, the fallback for creations
// whose object id could not be resolved.
func (h *HTTPHandler) SelectCurrent(c *gin.Context) {
	var req struct {
		ID string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validID(req.ID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a 0x object id"})
		return
	}
	if err := h.current.Set(req.ID); err != nil {
		logger.Errorf("persist current lottery: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not persist selection"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": req.ID})
}

// Create handles lottery creation. Price arrives in display units and
// hours-from-now, matching what an operator types.
func (h *HTTPHandler) Create(c *gin.Context) {
	var req struct {
		Price string  `json:"price" binding:"required"`
		Hours float64 `json:"hours" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must be a positive decimal"})
		return
	}
	deadline := time.Now().UnixMilli() + int64(req.Hours*3600_000)

	result, err := h.actions.CreateLottery(c.Request.Context(), models.SuiToMist(price), deadline)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.kickPollers()
	if result.LotteryID == "" {
		// Funds are committed; the caller gets the digest and must fall
		// back to manual id entry.
		c.JSON(http.StatusOK, gin.H{"digest": result.Digest, "lotteryId": nil})
		return
	}
	if err := h.current.Set(result.LotteryID); err != nil {
		logger.Errorf("persist created lottery id: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"digest": result.Digest, "lotteryId": result.LotteryID})
}

// Buy handles a ticket purchase against one lottery.
func (h *HTTPHandler) Buy(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		Quantity int `json:"quantity" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lot, err := h.reader.Lottery(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if lot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lottery not found"})
		return
	}
	digest, err := h.actions.BuyTickets(c.Request.Context(), id, lot.TicketPrice, req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.kickPollers()
	c.JSON(http.StatusOK, gin.H{"digest": digest})
}

// Draw handles the draw dispatch for one lottery.
func (h *HTTPHandler) Draw(c *gin.Context) {
	digest, err := h.actions.DrawWinner(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.kickPollers()
	c.JSON(http.StatusOK, gin.H{"digest": digest})
}

// Refund handles a refund claim for one lottery.
func (h *HTTPHandler) Refund(c *gin.Context) {
	digest, err := h.actions.ClaimRefund(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.kickPollers()
	c.JSON(http.StatusOK, gin.H{"digest": digest})
}

// writeError maps write-path failures to responses; the specific reason is
// always surfaced, never swallowed.
func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	logger.Errorf("action failed: %v", err)
	status := http.StatusBadGateway
	if errors.Is(err, wallet.ErrWalletUnavailable) {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *HTTPHandler) kickPollers() {
	for _, p := range h.pollers {
		p.Kick()
	}
}

func validID(s string) bool {
	return strings.HasPrefix(s, "0x") && len(s) > 2
}
