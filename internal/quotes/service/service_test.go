package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"cotizador_backend/internal/adapters/storage"
	"cotizador_backend/internal/conversation/domain"
	"cotizador_backend/internal/events"
	"cotizador_backend/internal/quotes/repository"
	"cotizador_backend/internal/quotes/transport"
	"cotizador_backend/platform/apperr"
	"cotizador_backend/platform/logger"
)

type fakeRepo struct {
	created  []repository.CreateParams
	quotes   map[uuid.UUID]repository.Quote
	pdfPaths map[uuid.UUID]string
	views    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{quotes: map[uuid.UUID]repository.Quote{}, pdfPaths: map[uuid.UUID]string{}}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Quote, error) {
	f.created = append(f.created, params)
	q := repository.Quote{
		ID:             uuid.New(),
		QuoteNumber:    repository.FormatQuoteNumber(repository.BusinessDay(params.Day), len(f.created)),
		ConversationID: params.ConversationID,
		UserID:         params.UserID,
		CustomerName:   params.CustomerName,
		SubtotalCents:  params.SubtotalCents,
		TaxRateBps:     params.TaxRateBps,
		TaxCents:       params.TaxCents,
		TotalCents:     params.TotalCents,
		Status:         repository.StatusDraft,
		ValidUntil:     params.ValidUntil,
		CreatedAt:      params.Day,
	}
	for i, item := range params.Items {
		sku := item.ProductSKU
		q.Items = append(q.Items, repository.QuoteItem{
			ID:             uuid.New(),
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			ProductSKU:     &sku,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
			LineOrder:      i,
		})
	}
	f.quotes[q.ID] = q
	return q, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Quote, error) {
	q, ok := f.quotes[id]
	if !ok {
		return repository.Quote{}, apperr.NotFound("quote not found")
	}
	return q, nil
}

func (f *fakeRepo) ListByUser(_ context.Context, userID uuid.UUID, _ int) ([]repository.Quote, error) {
	var out []repository.Quote
	for _, q := range f.quotes {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetPDF(_ context.Context, id uuid.UUID, path string, _ int) error {
	q, ok := f.quotes[id]
	if !ok {
		return apperr.NotFound("quote not found")
	}
	f.pdfPaths[id] = path
	if path != "" {
		q.PDFPath = &path
	}
	q.Status = repository.StatusSent
	f.quotes[id] = q
	return nil
}

func (f *fakeRepo) RecordView(_ context.Context, _ uuid.UUID) error {
	f.views++
	return nil
}

func (f *fakeRepo) ExpireOverdue(context.Context, time.Time) (int64, error) { return 0, nil }

type fakeProducts struct {
	bySKU map[string]Product
}

func (f fakeProducts) LookupProduct(_ context.Context, _ *uuid.UUID, sku string) (Product, error) {
	p, ok := f.bySKU[sku]
	if !ok {
		return Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

type fakeStorage struct {
	objects map[string][]byte
	failPut bool
}

func (f *fakeStorage) PutObject(_ context.Context, _ string, fileKey, _ string, reader io.Reader, _ int64) error {
	if f.failPut {
		return errors.New("minio down")
	}
	data, _ := io.ReadAll(reader)
	f.objects[fileKey] = data
	return nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://files.example.com/" + bucket + "/" + fileKey, FileKey: fileKey}, nil
}

func (f *fakeStorage) DownloadFile(_ context.Context, _ string, fileKey string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.objects[fileKey])), nil
}

func (f *fakeStorage) EnsureBucketExists(context.Context, string) error { return nil }
func (f *fakeStorage) ValidateContentType(string) error { return nil }
func (f *fakeStorage) ValidateFileSize(int64) error { return nil }

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}
func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}
func (b *recordingBus) Subscribe(string, events.Handler) {}

func catalogFixture() fakeProducts {
	return fakeProducts{bySKU: map[string]Product{
		"LAP-HB-001":    {ID: uuid.New(), SKU: "LAP-HB-001", Name: "Lápiz HB #2", PriceCents: 850, StockQuantity: 500, Active: true},
		"PAP-CARTA-500": {ID: uuid.New(), SKU: "PAP-CARTA-500", Name: "Papel Bond Carta", PriceCents: 12000, StockQuantity: 3, Active: true},
		"MAR-SHARPIE":   {ID: uuid.New(), SKU: "MAR-SHARPIE", Name: "Marcador", PriceCents: 2500, StockQuantity: 0, Active: true},
		"OLD-001":       {ID: uuid.New(), SKU: "OLD-001", Name: "Descontinuado", PriceCents: 100, StockQuantity: 10, Active: false},
	}}
}

func newTestService(repo *fakeRepo, store storage.StorageService) *Service {
	svc := New(repo, catalogFixture(), nil, store, Config{
		TaxRateBps:    1600,
		ValidityDays:  30,
		PublicBaseURL: "https://cotizador.example.com/",
		Bucket:        "quote-pdfs",
	}, logger.Discard())
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestBuildQuoteUsesLiveCatalog(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	result, err := svc.BuildQuote(context.Background(), domain.QuoteRequest{
		ConversationID: uuid.New(),
		UserID:         uuid.New(),
		CustomerName:   "Ana",
		Lines: []domain.QuoteLine{
			{SKU: "LAP-HB-001", Name: "Lápiz", Quantity: 10, UnitPriceCents: 1},
			{SKU: "PAP-CARTA-500", Name: "Papel", Quantity: 8, UnitPriceCents: 1},
			{SKU: "MAR-SHARPIE", Name: "Marcador", Quantity: 1, UnitPriceCents: 2500},
			{SKU: "OLD-001", Name: "Viejo", Quantity: 1, UnitPriceCents: 100},
			{SKU: "NOPE", Name: "Inexistente", Quantity: 1, UnitPriceCents: 100},
		},
	})
	if err != nil {
		t.Fatalf("expected quote, got %v", err)
	}
	if result.ItemCount != 2 {
		t.Fatalf("expected 2 items, got %d", result.ItemCount)
	}
	if !strings.HasPrefix(result.Number, "COT-20261014-") {
		t.Fatalf("unexpected quote number %q", result.Number)
	}

	params := repo.created[0]
	if params.Items[1].Quantity != 3 {
		t.Fatalf("expected quantity clamped to stock 3, got %d", params.Items[1].Quantity)
	}
	if params.Items[0].UnitPriceCents != 850 {
		t.Fatalf("expected live price 850, got %d", params.Items[0].UnitPriceCents)
	}
	wantSubtotal := int64(10*850 + 3*12000)
	if params.SubtotalCents != wantSubtotal {
		t.Fatalf("expected subtotal %d, got %d", wantSubtotal, params.SubtotalCents)
	}
	if params.TaxCents != ComputeTax(wantSubtotal, 1600) || result.TotalCents != wantSubtotal+params.TaxCents {
		t.Fatalf("unexpected totals %+v", params)
	}
	if !params.ValidUntil.Equal(time.Date(2026, 11, 13, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected validity %v", params.ValidUntil)
	}
}

func TestBuildQuoteNumbersByBusinessDay(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, catalogFixture(), nil, nil, Config{
		TaxRateBps: 1600,
		Location:   time.FixedZone("CST", -6*3600),
	}, logger.Discard())
	// 01:30 UTC on the 15th is still the evening of the 14th locally.
	svc.now = func() time.Time { return time.Date(2026, 10, 15, 1, 30, 0, 0, time.UTC) }

	result, err := svc.BuildQuote(context.Background(), domain.QuoteRequest{
		UserID: uuid.New(),
		Lines:  []domain.QuoteLine{{SKU: "LAP-HB-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("expected quote, got %v", err)
	}
	if !strings.HasPrefix(result.Number, "COT-20261014-") {
		t.Fatalf("expected local day in number, got %q", result.Number)
	}
	if day := repository.BusinessDay(repo.created[0].Day); !day.Equal(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected sequence day 2026-10-14, got %v", day)
	}
}

func TestBuildQuoteWithoutQuotableLinesFails(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)

	_, err := svc.BuildQuote(context.Background(), domain.QuoteRequest{
		UserID: uuid.New(),
		Lines:  []domain.QuoteLine{{SKU: "MAR-SHARPIE", Quantity: 1}},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRenderPDFStoresAndPublishes(t *testing.T) {
	repo := newFakeRepo()
	store := &fakeStorage{objects: map[string][]byte{}}
	bus := &recordingBus{}
	svc := newTestService(repo, store)
	svc.SetEventBus(bus)

	result, err := svc.BuildQuote(context.Background(), domain.QuoteRequest{
		UserID: uuid.New(),
		Lines:  []domain.QuoteLine{{SKU: "LAP-HB-001", Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	key, err := svc.RenderPDF(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if key != "quotes/"+result.Number+".pdf" {
		t.Fatalf("unexpected key %q", key)
	}
	if !bytes.HasPrefix(store.objects[key], []byte("%PDF")) {
		t.Fatalf("expected stored PDF under %s", key)
	}
	if repo.quotes[result.ID].Status != repository.StatusSent {
		t.Fatalf("expected quote to be sent, got %s", repo.quotes[result.ID].Status)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.published))
	}
	evt, ok := bus.published[0].(events.QuoteGenerated)
	if !ok || evt.QuoteNumber != result.Number {
		t.Fatalf("unexpected event %+v", bus.published[0])
	}
	if evt.PublicURL != "https://cotizador.example.com/api/v1/quotes/"+result.ID.String()+"/pdf" {
		t.Fatalf("unexpected public url %q", evt.PublicURL)
	}
}

func TestRenderPDFStorageFailureIsUnavailable(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStorage{objects: map[string][]byte{}, failPut: true})

	result, err := svc.BuildQuote(context.Background(), domain.QuoteRequest{
		UserID: uuid.New(),
		Lines:  []domain.QuoteLine{{SKU: "LAP-HB-001", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := svc.RenderPDF(context.Background(), result.ID); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if repo.quotes[result.ID].Status != repository.StatusDraft {
		t.Fatalf("expected quote to stay draft")
	}
}

func TestGetPDFRedirectsWhenStored(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeStorage{objects: map[string][]byte{}})

	result, _ := svc.BuildQuote(context.Background(), domain.QuoteRequest{
		UserID: uuid.New(),
		Lines:  []domain.QuoteLine{{SKU: "LAP-HB-001", Quantity: 1}},
	})
	if _, err := svc.RenderPDF(context.Background(), result.ID); err != nil {
		t.Fatalf("render: %v", err)
	}

	download, err := svc.GetPDF(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("get pdf: %v", err)
	}
	if !strings.HasSuffix(download.RedirectURL, "quote-pdfs/quotes/"+result.Number+".pdf") {
		t.Fatalf("unexpected redirect %q", download.RedirectURL)
	}
	if repo.views != 1 {
		t.Fatalf("expected one recorded view, got %d", repo.views)
	}
}

func TestGetPDFRendersWithoutStorage(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil)

	result, _ := svc.BuildQuote(context.Background(), domain.QuoteRequest{
		UserID: uuid.New(),
		Lines:  []domain.QuoteLine{{SKU: "LAP-HB-001", Quantity: 1}},
	})
	if _, err := svc.RenderPDF(context.Background(), result.ID); err != nil {
		t.Fatalf("render: %v", err)
	}

	download, err := svc.GetPDF(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("get pdf: %v", err)
	}
	if download.RedirectURL != "" || !bytes.HasPrefix(download.Content, []byte("%PDF")) {
		t.Fatalf("expected inline PDF bytes")
	}
}

func TestGetPDFUnknownQuote(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)
	if _, err := svc.GetPDF(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListByUserRejectsInvalidID(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil)
	_, err := svc.ListByUser(context.Background(), transportListRequest("nope"))
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestClampQuantity(t *testing.T) {
	cases := []struct{ requested, stock, want int }{
		{0, 10, 1},
		{5, 10, 5},
		{50, 10, 10},
	}
	for _, tc := range cases {
		if got := clampQuantity(tc.requested, tc.stock); got != tc.want {
			t.Fatalf("clampQuantity(%d, %d): expected %d, got %d", tc.requested, tc.stock, tc.want, got)
		}
	}
}

func transportListRequest(userID string) transport.ListQuotesRequest {
	return transport.ListQuotesRequest{UserID: userID}
}
