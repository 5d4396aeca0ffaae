package billing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/facturacion-backend/internal/models"
)

const testUserID = 1

func newTestService(t *testing.T) (*InvoiceService, *gorm.DB) {
	t.Helper()
	conn := setupBillingTestDB(t)
	return NewInvoiceService(conn, DefaultParams()), conn
}

func createInvoice(t *testing.T, svc *InvoiceService, customerID uint, items ...LineInput) *models.Invoice {
	t.Helper()
	res, err := svc.Create(CreateInvoiceInput{CustomerID: customerID, Items: items}, testUserID)
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return res.Invoice
}

func TestCreateInvoice(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 10)

	res, err := svc.Create(CreateInvoiceInput{
		CustomerID: customer.ID,
		Items:      []LineInput{{ArticleID: art.ID, Quantity: 4, UnitPrice: dec(t, "100000")}},
		Notes:      "first order",
	}, testUserID)
	require.NoError(t, err)
	require.Empty(t, res.Warnings)

	inv := res.Invoice
	require.Equal(t, "FV-000001", inv.Number)
	require.Equal(t, models.InvoiceStatusActive, inv.Status)
	require.Equal(t, customer.Document, inv.CustomerDocument)
	require.Equal(t, customer.Name, inv.CustomerName)
	requireDecimalEqual(t, "400000", inv.Subtotal)
	requireDecimalEqual(t, "0", inv.DiscountValue)
	requireDecimalEqual(t, "76000", inv.TaxValue)
	requireDecimalEqual(t, "476000", inv.Total)
	require.Len(t, inv.Lines, 1)
	require.Equal(t, "ART-1", inv.Lines[0].ArticleCode)
	requireDecimalEqual(t, "400000", inv.Lines[0].Subtotal)

	require.Equal(t, 6, articleStock(t, conn, art.ID))

	var stored models.Invoice
	require.NoError(t, conn.First(&stored, inv.ID).Error)
	require.Equal(t, "FV-000001", stored.Number)
	requireDecimalEqual(t, "476000", stored.Total)
}

func TestCreateInvoiceWithDiscount(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 10)

	inv := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art.ID, Quantity: 6, UnitPrice: dec(t, "100000")})
	requireDecimalEqual(t, "600000", inv.Subtotal)
	requireDecimalEqual(t, "5", inv.DiscountPercent)
	requireDecimalEqual(t, "30000", inv.DiscountValue)
	requireDecimalEqual(t, "570000", inv.TaxableBase)
	requireDecimalEqual(t, "108300", inv.TaxValue)
	requireDecimalEqual(t, "678300", inv.Total)
	require.Equal(t, 4, articleStock(t, conn, art.ID))
}

func TestCreateInvoiceRejectionLeavesNothingBehind(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 10)

	_, err := svc.Create(CreateInvoiceInput{
		CustomerID: customer.ID,
		Items: []LineInput{
			{ArticleID: art.ID, Quantity: 4, UnitPrice: dec(t, "100000")},
			{ArticleID: 999, Quantity: 1, UnitPrice: dec(t, "100")},
		},
	}, testUserID)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	require.Contains(t, rej.Errors[0], "article 999 not found")

	require.Equal(t, 10, articleStock(t, conn, art.ID))
	var count int64
	require.NoError(t, conn.Model(&models.Invoice{}).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, conn.Model(&models.InvoiceLine{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateInvoicePassesWarningsThrough(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 10)

	res, err := svc.Create(CreateInvoiceInput{
		CustomerID: customer.ID,
		Items:      []LineInput{{ArticleID: art.ID, Quantity: 1, UnitPrice: dec(t, "130000")}},
	}, testUserID)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "deviates")
}

func TestAddLine(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art1 := seedArticle(t, conn, "ART-1", "100000", 10)
	art2 := seedArticle(t, conn, "ART-2", "50000", 8)

	inv := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art1.ID, Quantity: 4, UnitPrice: dec(t, "100000")})

	updated, err := svc.AddLine(inv.ID, LineInput{ArticleID: art2.ID, Quantity: 4, UnitPrice: dec(t, "50000")}, testUserID)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 2)
	// 400000 + 200000 crosses the discount threshold.
	requireDecimalEqual(t, "600000", updated.Subtotal)
	requireDecimalEqual(t, "30000", updated.DiscountValue)
	requireDecimalEqual(t, "678300", updated.Total)
	require.Equal(t, 4, articleStock(t, conn, art2.ID))
}

func TestAddLineRejectsDuplicateArticle(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 10)

	inv := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art.ID, Quantity: 2, UnitPrice: dec(t, "100000")})

	_, err := svc.AddLine(inv.ID, LineInput{ArticleID: art.ID, Quantity: 1, UnitPrice: dec(t, "100000")}, testUserID)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	require.Contains(t, rej.Errors[0], "already on the invoice")
	require.Equal(t, 8, articleStock(t, conn, art.ID))
}

func TestAddLineInsufficientStockIsRejection(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art1 := seedArticle(t, conn, "ART-1", "100000", 10)
	art2 := seedArticle(t, conn, "ART-2", "50000", 3)

	inv := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art1.ID, Quantity: 1, UnitPrice: dec(t, "100000")})

	_, err := svc.AddLine(inv.ID, LineInput{ArticleID: art2.ID, Quantity: 5, UnitPrice: dec(t, "50000")}, testUserID)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	require.Contains(t, rej.Errors[0], "available 3")
	require.Equal(t, 3, articleStock(t, conn, art2.ID))
}

func TestUpdateLine(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 10)

	inv := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art.ID, Quantity: 4, UnitPrice: dec(t, "100000")})
	lineID := inv.Lines[0].ID

	// Raise the quantity: two more units reserved.
	updated, err := svc.UpdateLine(inv.ID, lineID, 6, dec(t, "100000"), testUserID)
	require.NoError(t, err)
	require.Equal(t, 4, articleStock(t, conn, art.ID))
	requireDecimalEqual(t, "600000", updated.Subtotal)
	requireDecimalEqual(t, "678300", updated.Total)

	// Lower it: three units come back.
	updated, err = svc.UpdateLine(inv.ID, lineID, 3, dec(t, "100000"), testUserID)
	require.NoError(t, err)
	require.Equal(t, 7, articleStock(t, conn, art.ID))
	requireDecimalEqual(t, "300000", updated.Subtotal)

	// Price-only change leaves stock alone.
	updated, err = svc.UpdateLine(inv.ID, lineID, 3, dec(t, "90000"), testUserID)
	require.NoError(t, err)
	require.Equal(t, 7, articleStock(t, conn, art.ID))
	requireDecimalEqual(t, "270000", updated.Subtotal)
}

func TestUpdateLineInsufficientStock(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 10)

	inv := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art.ID, Quantity: 4, UnitPrice: dec(t, "100000")})
	lineID := inv.Lines[0].ID

	// 4 reserved, 6 left; asking for 11 needs 7 more.
	_, err := svc.UpdateLine(inv.ID, lineID, 11, dec(t, "100000"), testUserID)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	require.Equal(t, 6, articleStock(t, conn, art.ID))

	var line models.InvoiceLine
	require.NoError(t, conn.First(&line, lineID).Error)
	require.Equal(t, 4, line.Quantity)
}

func TestUpdateLineUnknownLine(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 10)

	inv := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art.ID, Quantity: 1, UnitPrice: dec(t, "100000")})

	_, err := svc.UpdateLine(inv.ID, 999, 2, dec(t, "100000"), testUserID)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestRemoveLine(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art1 := seedArticle(t, conn, "ART-1", "100000", 10)
	art2 := seedArticle(t, conn, "ART-2", "50000", 8)

	inv := createInvoice(t, svc, customer.ID,
		LineInput{ArticleID: art1.ID, Quantity: 4, UnitPrice: dec(t, "100000")},
		LineInput{ArticleID: art2.ID, Quantity: 4, UnitPrice: dec(t, "50000")},
	)
	require.Equal(t, 4, articleStock(t, conn, art2.ID))

	updated, err := svc.RemoveLine(inv.ID, inv.Lines[1].ID, testUserID)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	requireDecimalEqual(t, "400000", updated.Subtotal)
	requireDecimalEqual(t, "476000", updated.Total)
	require.Equal(t, 8, articleStock(t, conn, art2.ID))

	// The removed line is kept, inactive, for history.
	var line models.InvoiceLine
	require.NoError(t, conn.First(&line, inv.Lines[1].ID).Error)
	require.False(t, line.Active)

	// Removing it twice is a not-found, not a double restore.
	_, err = svc.RemoveLine(inv.ID, line.ID, testUserID)
	require.True(t, errors.Is(err, ErrNotFound))
	require.Equal(t, 8, articleStock(t, conn, art2.ID))
}

func TestVoidInvoice(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 10)

	inv := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art.ID, Quantity: 4, UnitPrice: dec(t, "100000")})
	require.Equal(t, 6, articleStock(t, conn, art.ID))

	voided, err := svc.Void(inv.ID, "customer cancelled the order", testUserID)
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusVoided, voided.Status)
	require.Contains(t, voided.Notes, "voided: customer cancelled the order")
	require.Equal(t, 10, articleStock(t, conn, art.ID))

	// Monetary fields survive the void untouched.
	var stored models.Invoice
	require.NoError(t, conn.First(&stored, inv.ID).Error)
	require.Equal(t, models.InvoiceStatusVoided, stored.Status)
	requireDecimalEqual(t, "400000", stored.Subtotal)
	requireDecimalEqual(t, "476000", stored.Total)

	// A second void must not restore stock again.
	_, err = svc.Void(inv.ID, "again", testUserID)
	require.True(t, errors.Is(err, ErrAlreadyVoided))
	require.Equal(t, 10, articleStock(t, conn, art.ID))
}

func TestVoidRequiresReason(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 10)

	inv := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art.ID, Quantity: 1, UnitPrice: dec(t, "100000")})

	_, err := svc.Void(inv.ID, "   ", testUserID)
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	require.Contains(t, rej.Errors[0], "reason is required")
	require.Equal(t, 9, articleStock(t, conn, art.ID))
}

func TestVoidUnknownInvoice(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Void(999, "whatever", testUserID)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestVoidSkipsRemovedLines(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art1 := seedArticle(t, conn, "ART-1", "100000", 10)
	art2 := seedArticle(t, conn, "ART-2", "50000", 8)

	inv := createInvoice(t, svc, customer.ID,
		LineInput{ArticleID: art1.ID, Quantity: 4, UnitPrice: dec(t, "100000")},
		LineInput{ArticleID: art2.ID, Quantity: 4, UnitPrice: dec(t, "50000")},
	)
	_, err := svc.RemoveLine(inv.ID, inv.Lines[1].ID, testUserID)
	require.NoError(t, err)

	_, err = svc.Void(inv.ID, "wrong customer", testUserID)
	require.NoError(t, err)

	// The removed line was already restored; voiding must not restore it twice.
	require.Equal(t, 10, articleStock(t, conn, art1.ID))
	require.Equal(t, 8, articleStock(t, conn, art2.ID))
}

func TestMutationsOnVoidedInvoice(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 10)

	inv := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art.ID, Quantity: 2, UnitPrice: dec(t, "100000")})
	lineID := inv.Lines[0].ID
	_, err := svc.Void(inv.ID, "done", testUserID)
	require.NoError(t, err)

	_, err = svc.AddLine(inv.ID, LineInput{ArticleID: art.ID, Quantity: 1, UnitPrice: dec(t, "100000")}, testUserID)
	require.True(t, errors.Is(err, ErrInvoiceVoided))

	_, err = svc.UpdateLine(inv.ID, lineID, 5, dec(t, "100000"), testUserID)
	require.True(t, errors.Is(err, ErrInvoiceVoided))

	_, err = svc.RemoveLine(inv.ID, lineID, testUserID)
	require.True(t, errors.Is(err, ErrInvoiceVoided))

	require.Equal(t, 10, articleStock(t, conn, art.ID))
}

func TestStockConservedAcrossLifecycle(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 20)

	inv := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art.ID, Quantity: 5, UnitPrice: dec(t, "100000")})
	lineID := inv.Lines[0].ID

	_, err := svc.UpdateLine(inv.ID, lineID, 8, dec(t, "100000"), testUserID)
	require.NoError(t, err)
	_, err = svc.UpdateLine(inv.ID, lineID, 2, dec(t, "100000"), testUserID)
	require.NoError(t, err)
	require.Equal(t, 18, articleStock(t, conn, art.ID))

	_, err = svc.Void(inv.ID, "lifecycle done", testUserID)
	require.NoError(t, err)
	require.Equal(t, 20, articleStock(t, conn, art.ID))
}

func TestPreviewTotals(t *testing.T) {
	svc, _ := newTestService(t)

	got := svc.PreviewTotals([]LineInput{
		{ArticleID: 1, Quantity: 4, UnitPrice: dec(t, "100000")},
		{ArticleID: 2, Quantity: 4, UnitPrice: dec(t, "50000")},
		{ArticleID: 3, Quantity: 0, UnitPrice: dec(t, "99999")},
		{ArticleID: 4, Quantity: 2, UnitPrice: dec(t, "-5")},
	})
	requireDecimalEqual(t, "600000", got.Subtotal)
	requireDecimalEqual(t, "30000", got.DiscountValue)
	requireDecimalEqual(t, "678300", got.Total)
}

func TestInvoiceNumberSequence(t *testing.T) {
	svc, conn := newTestService(t)
	customer := seedCustomer(t, conn)
	art := seedArticle(t, conn, "ART-1", "100000", 100)

	first := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art.ID, Quantity: 1, UnitPrice: dec(t, "100000")})
	second := createInvoice(t, svc, customer.ID, LineInput{ArticleID: art.ID, Quantity: 1, UnitPrice: dec(t, "100000")})

	require.Equal(t, FormatInvoiceNumber(first.ID), first.Number)
	require.Equal(t, FormatInvoiceNumber(second.ID), second.Number)
	require.NotEqual(t, first.Number, second.Number)
}
