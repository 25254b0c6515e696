// Package service implements quote building, rendering and retrieval.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"cotizador_backend/internal/adapters/storage"
	"cotizador_backend/internal/conversation/domain"
	"cotizador_backend/internal/events"
	"cotizador_backend/internal/pdf"
	"cotizador_backend/internal/quotes/repository"
	"cotizador_backend/internal/quotes/transport"
	"cotizador_backend/platform/apperr"
	"cotizador_backend/platform/logger"
)

const (
	contentTypePDF   = "application/pdf"
	defaultListLimit = 20
	maxListLimit     = 100
	pdfKeyPrefix     = "quotes/"
)

// Product is the live catalog view used when pricing a quote.
type Product struct {
	ID            uuid.UUID
	SKU           string
	Name          string
	Description   string
	PriceCents    int64
	StockQuantity int
	Active        bool
}

// ProductReader re-reads a product by id, falling back to sku.
type ProductReader interface {
	LookupProduct(ctx context.Context, id *uuid.UUID, sku string) (Product, error)
}

// Customer is the contact data printed on a quote.
type Customer struct {
	Name  string
	Phone string
	Email string
}

// CustomerReader resolves the user a quote belongs to.
type CustomerReader interface {
	GetCustomer(ctx context.Context, userID uuid.UUID) (Customer, error)
}

// Company is the issuer block of the document.
type Company struct {
	Name  string
	Email string
	Phone string
}

// Config carries the quote tunables.
type Config struct {
	TaxRateBps    int64
	ValidityDays  int
	PublicBaseURL string
	Bucket        string
	Company       Company
	// Location is the business time zone; quote numbers follow its calendar day.
	Location *time.Location
}

// PDFDownload is either a redirect to stored content or the rendered bytes.
type PDFDownload struct {
	QuoteNumber string
	RedirectURL string
	Content     []byte
}

// Service provides business logic for quotes.
type Service struct {
	repo      repository.Repository
	products  ProductReader
	customers CustomerReader
	storage   storage.StorageService
	eventBus  events.Bus
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new quotes service. storage may be nil, in which case
// documents are rendered on demand instead of being stored.
func New(repo repository.Repository, products ProductReader, customers CustomerReader, store storage.StorageService, cfg Config, log *logger.Logger) *Service {
	if cfg.ValidityDays <= 0 {
		cfg.ValidityDays = 30
	}
	if cfg.Company.Name == "" {
		cfg.Company.Name = "Computel"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		repo:      repo,
		products:  products,
		customers: customers,
		storage:   store,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// SetEventBus sets the event bus for publishing domain events.
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

// BuildQuote persists a quote for the accepted lines of a conversation.
// Every line is priced from the live catalog; unknown, inactive and
// out-of-stock products are skipped and quantities are clamped to stock.
func (s *Service) BuildQuote(ctx context.Context, req domain.QuoteRequest) (domain.QuoteResult, error) {
	items := make([]repository.CreateItemParams, 0, len(req.Lines))
	priced := make([]PricedLine, 0, len(req.Lines))

	for _, line := range req.Lines {
		product, err := s.products.LookupProduct(ctx, line.ProductID, line.SKU)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				s.log.Warn("quote line skipped", "reason", "unknown_product", "sku", line.SKU)
				continue
			}
			return domain.QuoteResult{}, err
		}
		if !product.Active || product.StockQuantity <= 0 {
			s.log.Warn("quote line skipped", "reason", "unavailable", "sku", product.SKU)
			continue
		}

		qty := clampQuantity(line.Quantity, product.StockQuantity)
		description := line.Description
		if description == "" {
			description = product.Description
		}
		productID := product.ID
		items = append(items, repository.CreateItemParams{
			ProductID:      &productID,
			ProductName:    product.Name,
			ProductSKU:     product.SKU,
			Description:    description,
			Quantity:       qty,
			UnitPriceCents: product.PriceCents,
			TotalCents:     LineTotal(qty, product.PriceCents),
		})
		priced = append(priced, PricedLine{Quantity: qty, UnitPriceCents: product.PriceCents})
	}

	if len(items) == 0 {
		return domain.QuoteResult{}, apperr.Validation("no quotable products").WithOp("quotes.BuildQuote")
	}

	totals := CalculateTotals(priced, s.cfg.TaxRateBps)
	now := s.now().In(s.cfg.Location)
	convID := req.ConversationID
	var convRef *uuid.UUID
	if convID != uuid.Nil {
		convRef = &convID
	}

	q, err := s.repo.Create(ctx, repository.CreateParams{
		ConversationID: convRef,
		UserID:         req.UserID,
		CustomerName:   req.CustomerName,
		Day:            now,
		SubtotalCents:  totals.SubtotalCents,
		TaxRateBps:     s.cfg.TaxRateBps,
		TaxCents:       totals.TaxCents,
		TotalCents:     totals.TotalCents,
		ValidUntil:     now.AddDate(0, 0, s.cfg.ValidityDays),
		Items:          items,
	})
	if err != nil {
		return domain.QuoteResult{}, err
	}

	s.log.Info("quote created",
		"quote_id", q.ID,
		"quote_number", q.QuoteNumber,
		"items", len(q.Items),
		"total_cents", q.TotalCents,
	)

	return domain.QuoteResult{
		ID:         q.ID,
		Number:     q.QuoteNumber,
		TotalCents: q.TotalCents,
		ItemCount:  len(q.Items),
	}, nil
}

// RenderPDF renders the document of a quote, stores it when storage is
// configured, marks the quote as sent and publishes QuoteGenerated.
// It returns the storage key, or an empty string when nothing was stored.
func (s *Service) RenderPDF(ctx context.Context, quoteID uuid.UUID) (string, error) {
	q, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return "", err
	}

	content, err := s.render(ctx, q)
	if err != nil {
		return "", err
	}

	key := ""
	if s.storage != nil {
		key = PDFKey(q.QuoteNumber)
		if err := s.storage.ValidateContentType(contentTypePDF); err != nil {
			return "", err
		}
		if err := s.storage.ValidateFileSize(int64(len(content))); err != nil {
			return "", err
		}
		if err := s.storage.PutObject(ctx, s.cfg.Bucket, key, contentTypePDF, bytes.NewReader(content), int64(len(content))); err != nil {
			return "", apperr.Unavailable("store quote pdf", err)
		}
	}

	if err := s.repo.SetPDF(ctx, q.ID, key, len(content)); err != nil {
		return "", err
	}

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.QuoteGenerated{
			BaseEvent:      events.NewBaseEvent(),
			QuoteID:        q.ID,
			QuoteNumber:    q.QuoteNumber,
			UserID:         q.UserID,
			ConversationID: q.ConversationID,
			PDFPath:        key,
			PublicURL:      s.PublicURL(q.ID),
			TotalCents:     q.TotalCents,
		})
	}

	return key, nil
}

// GetPDF resolves the public download of a quote and records the view.
func (s *Service) GetPDF(ctx context.Context, quoteID uuid.UUID) (PDFDownload, error) {
	q, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return PDFDownload{}, err
	}

	if err := s.repo.RecordView(ctx, q.ID); err != nil {
		s.log.Warn("failed to record quote view", "quote_id", q.ID, "error", err)
	}

	if s.storage != nil && q.PDFPath != nil {
		presigned, err := s.storage.GenerateDownloadURL(ctx, s.cfg.Bucket, *q.PDFPath)
		if err == nil {
			return PDFDownload{QuoteNumber: q.QuoteNumber, RedirectURL: presigned.URL}, nil
		}
		s.log.ExternalFailure("storage", err)
	}

	content, err := s.render(ctx, q)
	if err != nil {
		return PDFDownload{}, err
	}
	return PDFDownload{QuoteNumber: q.QuoteNumber, Content: content}, nil
}

// PDFContent returns the document bytes, read from storage when stored.
func (s *Service) PDFContent(ctx context.Context, quoteID uuid.UUID) (string, []byte, error) {
	q, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return "", nil, err
	}

	if s.storage != nil && q.PDFPath != nil {
		reader, err := s.storage.DownloadFile(ctx, s.cfg.Bucket, *q.PDFPath)
		if err == nil {
			defer func() { _ = reader.Close() }()
			content, readErr := io.ReadAll(reader)
			if readErr == nil {
				return q.QuoteNumber, content, nil
			}
			err = readErr
		}
		s.log.ExternalFailure("storage", err)
	}

	content, err := s.render(ctx, q)
	if err != nil {
		return "", nil, err
	}
	return q.QuoteNumber, content, nil
}

// GetByID returns a quote with its items.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.QuoteResponse, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.QuoteResponse{}, err
	}
	return s.toResponse(q), nil
}

// ListByUser returns the most recent quotes of a user.
func (s *Service) ListByUser(ctx context.Context, req transport.ListQuotesRequest) (transport.QuoteListResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return transport.QuoteListResponse{}, apperr.BadRequest("invalid userId")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	quotes, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return transport.QuoteListResponse{}, err
	}

	items := make([]transport.QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, s.toResponse(q))
	}
	return transport.QuoteListResponse{Items: items, Total: len(items)}, nil
}

// ExpireOverdue expires sent and viewed quotes past their validity.
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repo.ExpireOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("quotes expired", "count", n)
	}
	return n, nil
}

// PublicURL is the link customers use to download a quote.
func (s *Service) PublicURL(quoteID uuid.UUID) string {
	return fmt.Sprintf("%s/api/v1/quotes/%s/pdf", strings.TrimRight(s.cfg.PublicBaseURL, "/"), quoteID)
}

// PDFKey is the object key of a stored quote document.
func PDFKey(quoteNumber string) string {
	return pdfKeyPrefix + quoteNumber + ".pdf"
}

func (s *Service) render(ctx context.Context, q repository.Quote) ([]byte, error) {
	customer := Customer{Name: q.CustomerName}
	if s.customers != nil {
		c, err := s.customers.GetCustomer(ctx, q.UserID)
		if err != nil {
			s.log.Warn("customer lookup failed for quote", "quote_id", q.ID, "error", err)
		} else {
			if c.Name != "" {
				customer.Name = c.Name
			}
			customer.Phone = c.Phone
		}
	}

	content, err := pdf.GenerateQuotePDF(s.pdfData(q, customer))
	if err != nil {
		return nil, fmt.Errorf("render quote %s: %w", q.QuoteNumber, err)
	}
	return content, nil
}

func (s *Service) pdfData(q repository.Quote, customer Customer) pdf.QuotePDFData {
	lines := make([]pdf.LineItem, 0, len(q.Items))
	for _, item := range q.Items {
		lines = append(lines, pdf.LineItem{
			Name:           item.ProductName,
			SKU:            deref(item.ProductSKU),
			Description:    deref(item.Description),
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.TotalCents,
		})
	}

	return pdf.QuotePDFData{
		QuoteNumber:   q.QuoteNumber,
		CreatedAt:     q.CreatedAt,
		ValidUntil:    q.ValidUntil,
		CompanyName:   s.cfg.Company.Name,
		CompanyEmail:  s.cfg.Company.Email,
		CompanyPhone:  s.cfg.Company.Phone,
		CustomerName:  customer.Name,
		CustomerPhone: customer.Phone,
		Items:         lines,
		SubtotalCents: q.SubtotalCents,
		TaxRateBps:    q.TaxRateBps,
		TaxCents:      q.TaxCents,
		TotalCents:    q.TotalCents,
		PublicURL:     s.PublicURL(q.ID),
	}
}

func (s *Service) toResponse(q repository.Quote) transport.QuoteResponse {
	resp := transport.QuoteResponse{
		ID:            q.ID.String(),
		QuoteNumber:   q.QuoteNumber,
		UserID:        q.UserID.String(),
		CustomerName:  q.CustomerName,
		SubtotalCents: q.SubtotalCents,
		TaxRateBps:    q.TaxRateBps,
		TaxCents:      q.TaxCents,
		TotalCents:    q.TotalCents,
		Status:        string(q.Status),
		ValidUntil:    q.ValidUntil,
		PDFURL:        s.PublicURL(q.ID),
		ViewCount:     q.ViewCount,
		SentAt:        q.SentAt,
		CreatedAt:     q.CreatedAt,
	}
	if q.ConversationID != nil {
		id := q.ConversationID.String()
		resp.ConversationID = &id
	}
	for _, item := range q.Items {
		var productID *string
		if item.ProductID != nil {
			id := item.ProductID.String()
			productID = &id
		}
		resp.Items = append(resp.Items, transport.QuoteItemResponse{
			ProductID:      productID,
			ProductName:    item.ProductName,
			ProductSKU:     item.ProductSKU,
			Description:    item.Description,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	return resp
}

func clampQuantity(requested, stock int) int {
	if requested < 1 {
		requested = 1
	}
	if stock > 0 && requested > stock {
		return stock
	}
	return requested
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
