package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	appledger "github.com/retail/backoffice/internal/application/ledger"
	"github.com/retail/backoffice/internal/domain/ledger"
)

// LedgerHandler handles journal entries, account ledgers and the trial balance
type LedgerHandler struct {
	BaseHandler
	ledger *appledger.LedgerService
	now    func() time.Time
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *appledger.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledgerService, now: time.Now}
}

// CreateEntry godoc
// @Summary      Post a manual journal entry
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        request body appledger.CreateEntryCommand true "Entry"
// @Success      201 {object} dto.Response{data=EntryResponse}
// @Security     BearerAuth
// @Router       /ledger/entries [post]
func (h *LedgerHandler) CreateEntry(c *gin.Context) {
	userID, ok := h.userOrAbort(c)
	if !ok {
		return
	}
	var cmd appledger.CreateEntryCommand
	if !h.bindJSON(c, &cmd) {
		return
	}
	entry, err := h.ledger.CreateEntry(c.Request.Context(), cmd, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toEntryResponse(entry))
}

// ListEntries godoc
// @Summary      List journal entries
// @Tags         ledger
// @Produce      json
// @Param        account query string false "Account touched on either side"
// @Param        type query string false "Entry type"
// @Param        from query string false "From (YYYY-MM-DD)"
// @Param        to query string false "To (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=[]EntryResponse}
// @Security     BearerAuth
// @Router       /ledger/entries [get]
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	from, err := queryDate(c, "from")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageParams(c)

	entries, total, err := h.ledger.ListEntries(c.Request.Context(), ledger.EntryFilter{
		Account:  ledger.Account(strings.ToUpper(c.Query("account"))),
		Type:     ledger.EntryType(c.Query("type")),
		From:     from,
		To:       to,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toEntryResponses(entries), total, page, pageSize)
}

// GetAccountLedger godoc
// @Summary      Running-balance ledger of one account
// @Tags         ledger
// @Produce      json
// @Param        account path string true "Account, e.g. CASH"
// @Param        from query string false "From (YYYY-MM-DD)"
// @Param        to query string false "To (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=AccountLedgerResponse}
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /ledger/accounts/{account} [get]
func (h *LedgerHandler) GetAccountLedger(c *gin.Context) {
	from, err := queryDate(c, "from")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	account := ledger.Account(strings.ToUpper(c.Param("account")))

	view, err := h.ledger.GetLedger(c.Request.Context(), account, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAccountLedgerResponse(view))
}

// GetTrialBalance godoc
// @Summary      Trial balance
// @Tags         ledger
// @Produce      json
// @Param        as_of query string false "As of (YYYY-MM-DD), defaults to now"
// @Success      200 {object} dto.Response{data=TrialBalanceResponse}
// @Security     BearerAuth
// @Router       /ledger/trial-balance [get]
func (h *LedgerHandler) GetTrialBalance(c *gin.Context) {
	asOf, err := queryDate(c, "as_of")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	at := h.now()
	if asOf != nil {
		at = *asOf
	}
	tb, err := h.ledger.GetTrialBalance(c.Request.Context(), at)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTrialBalanceResponse(tb))
}
