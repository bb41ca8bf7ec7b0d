package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"gstinvoice/internal/common"
	"gstinvoice/internal/models"
	"gstinvoice/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// InvoiceHandlers handles HTTP requests for invoices
type InvoiceHandlers struct {
	invoiceService  services.InvoiceService
	documentService services.DocumentService
}

// NewInvoiceHandlers creates a new invoice handlers instance
func NewInvoiceHandlers(invoiceService services.InvoiceService, documentService services.DocumentService) *InvoiceHandlers {
	return &InvoiceHandlers{
		invoiceService:  invoiceService,
		documentService: documentService,
	}
}

// scope resolves the authenticated seller and, when withID is set, the :id
// path parameter. When ok is false the response has already been written.
func (h *InvoiceHandlers) scope(c echo.Context, withID bool) (sellerID, invoiceID uuid.UUID, ok bool, err error) {
	sellerID, ok = common.GetSellerIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, uuid.Nil, false, common.SendUnauthorizedError(c)
	}
	if !withID {
		return sellerID, uuid.Nil, true, nil
	}
	invoiceID, err = common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, false, common.SendValidationError(c, "id", err.Error())
	}
	return sellerID, invoiceID, true, nil
}

// CreateInvoice handles POST /v1/invoices
//
//	@Summary	Create an invoice
//	@Tags		invoices
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		body	body		models.CreateInvoiceRequest	true	"Invoice"
//	@Success	201		{object}	models.Invoice
//	@Failure	400		{object}	common.ErrorResponse
//	@Failure	503		{object}	common.ErrorResponse
//	@Router		/invoices [post]
func (h *InvoiceHandlers) CreateInvoice(c echo.Context) error {
	sellerID, _, ok, err := h.scope(c, false)
	if !ok {
		return err
	}

	var req models.CreateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request().Context(), sellerID, req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, invoice)
}

// ListInvoices handles GET /v1/invoices
//
//	@Summary	List invoices, newest first
//	@Tags		invoices
//	@Produce	json
//	@Security	BearerAuth
//	@Param		status	query	string	false	"Draft, Pending, Paid or Overdue"
//	@Param		limit	query	int		false	"Page size"
//	@Param		offset	query	int		false	"Offset"
//	@Router		/invoices [get]
func (h *InvoiceHandlers) ListInvoices(c echo.Context) error {
	sellerID, _, ok, err := h.scope(c, false)
	if !ok {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err = common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendValidationError(c, "offset", err.Error())
	}
	status := models.InvoiceStatus(c.QueryParam("status"))

	invoices, err := h.invoiceService.ListInvoices(c.Request().Context(), sellerID, status, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	if invoices == nil {
		invoices = []*models.Invoice{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetInvoice handles GET /v1/invoices/:id
func (h *InvoiceHandlers) GetInvoice(c echo.Context) error {
	sellerID, invoiceID, ok, err := h.scope(c, true)
	if !ok {
		return err
	}

	invoice, err := h.invoiceService.GetInvoiceByID(c.Request().Context(), sellerID, invoiceID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// DownloadInvoicePDF handles GET /v1/invoices/:id/pdf
//
//	@Summary	Render the invoice as PDF
//	@Tags		invoices
//	@Produce	application/pdf
//	@Security	BearerAuth
//	@Param		id	path	string	true	"Invoice ID"
//	@Success	200	{file}	binary
//	@Router		/invoices/{id}/pdf [get]
func (h *InvoiceHandlers) DownloadInvoicePDF(c echo.Context) error {
	sellerID, invoiceID, ok, err := h.scope(c, true)
	if !ok {
		return err
	}

	doc, err := h.documentService.RenderInvoice(c.Request().Context(), sellerID, invoiceID)
	if err != nil {
		return common.SendError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", doc.FileName))
	return c.Blob(http.StatusOK, "application/pdf", doc.PDF)
}

// ArchiveInvoicePDF handles POST /v1/invoices/:id/archive
func (h *InvoiceHandlers) ArchiveInvoicePDF(c echo.Context) error {
	sellerID, invoiceID, ok, err := h.scope(c, true)
	if !ok {
		return err
	}

	archived, err := h.documentService.ArchiveInvoice(c.Request().Context(), sellerID, invoiceID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, archived)
}

// UpdateInvoiceStatus handles PUT /v1/invoices/:id/status
//
//	@Summary	Move an invoice to a new status
//	@Tags		invoices
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string								true	"Invoice ID"
//	@Param		body	body		models.UpdateInvoiceStatusRequest	true	"Target status"
//	@Success	200		{object}	models.Invoice
//	@Failure	409		{object}	common.ErrorResponse
//	@Router		/invoices/{id}/status [put]
func (h *InvoiceHandlers) UpdateInvoiceStatus(c echo.Context) error {
	sellerID, invoiceID, ok, err := h.scope(c, true)
	if !ok {
		return err
	}

	var req models.UpdateInvoiceStatusRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	invoice, err := h.invoiceService.UpdateInvoiceStatus(c.Request().Context(), sellerID, invoiceID, req.Status)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// DeleteInvoice handles DELETE /v1/invoices/:id
func (h *InvoiceHandlers) DeleteInvoice(c echo.Context) error {
	sellerID, invoiceID, ok, err := h.scope(c, true)
	if !ok {
		return err
	}

	if err := h.invoiceService.DeleteInvoice(c.Request().Context(), sellerID, invoiceID); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
