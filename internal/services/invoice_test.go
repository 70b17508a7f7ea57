package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/mitgajera/InvoicePro/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open db")
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Client{}, &models.Invoice{}, &models.InvoiceItem{}), "migrate")
	return db
}

func seedUserAndClient(t *testing.T, db *gorm.DB) (models.User, models.Client) {
	t.Helper()
	user := models.User{Email: fmt.Sprintf("owner-%s@test", t.Name()), PasswordHash: "x", Name: "Owner"}
	require.NoError(t, db.Create(&user).Error)
	client := models.Client{UserID: user.ID, Name: "ClientCo", Email: "billing@clientco.test"}
	require.NoError(t, db.Create(&client).Error)
	return user, client
}

func testItems() []models.InvoiceItem {
	return []models.InvoiceItem{
		{Name: "Design work", Quantity: 2, UnitPrice: 100, DiscountPct: 10},
	}
}

func TestGenerateNumberSequence(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewInvoiceService(db, "https://pay.test")

	for i := 0; i < 3; i++ {
		_, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{})
		require.NoError(t, err)
	}
	number, err := svc.GenerateNumber(user.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("INV-%d-0004", time.Now().Year()), number)
}

func TestGenerateNumberScopedPerUser(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	other := models.User{Email: "other@test", PasswordHash: "x"}
	require.NoError(t, db.Create(&other).Error)

	svc := NewInvoiceService(db, "https://pay.test")
	_, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{})
	require.NoError(t, err)

	// the other user's sequence starts fresh
	number, err := svc.GenerateNumber(other.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", time.Now().Year()), number)
}

func TestNumbersUniquePerUserNotGlobally(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	other := models.User{Email: "other@test", PasswordHash: "x"}
	require.NoError(t, db.Create(&other).Error)
	otherClient := models.Client{UserID: other.ID, Name: "Other", Email: "o@test"}
	require.NoError(t, db.Create(&otherClient).Error)

	svc := NewInvoiceService(db, "https://pay.test")

	// each user starts their own sequence, so both first invoices carry
	// the -0001 number and both writes succeed
	first, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{})
	require.NoError(t, err)
	second, err := svc.Create(other.ID, otherClient.ID, testItems(), InvoiceFields{})
	require.NoError(t, err, "another user's first invoice must not collide")

	want := fmt.Sprintf("INV-%d-0001", time.Now().Year())
	assert.Equal(t, want, first.Number)
	assert.Equal(t, want, second.Number)

	// the same number twice for one user is still rejected
	dup := models.Invoice{
		UserID: user.ID, ClientID: client.ID, Number: first.Number,
		Currency: "USD", IssueDate: time.Now(), DueDate: time.Now(),
	}
	assert.Error(t, db.Create(&dup).Error)
}

func TestNumberUsesCreationYear(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewInvoiceService(db, "https://pay.test")

	preview, err := svc.GenerateNumber(user.ID)
	require.NoError(t, err)

	backdated := time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC)
	inv, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{IssueDate: backdated})
	require.NoError(t, err)
	assert.Equal(t, preview, inv.Number, "preview and stored number agree for back-dated invoices")
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", time.Now().Year()), inv.Number)
}

func TestCreateComputesTotals(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewInvoiceService(db, "https://pay.test")

	inv, err := svc.Create(user.ID, client.ID, []models.InvoiceItem{
		{Name: "Design work", Quantity: 2, UnitPrice: 100, DiscountPct: 10},
	}, InvoiceFields{DiscountPct: 5, TaxRate: 10})
	require.NoError(t, err)

	assert.Equal(t, models.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "USD", inv.Currency)
	assert.InDelta(t, 180.0, inv.Subtotal, 1e-9)
	assert.InDelta(t, 17.10, inv.TaxAmount, 1e-9)
	assert.InDelta(t, 188.10, inv.Total, 1e-9)
	require.Len(t, inv.Items, 1)
	assert.InDelta(t, 180.0, inv.Items[0].Amount, 1e-9)
}

func TestCreateRequiresItems(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewInvoiceService(db, "https://pay.test")

	_, err := svc.Create(user.ID, client.ID, nil, InvoiceFields{})
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestCreateRejectsForeignClient(t *testing.T) {
	db := setupTestDB(t)
	user, _ := seedUserAndClient(t, db)
	intruderClientOwner := models.User{Email: "other@test", PasswordHash: "x"}
	require.NoError(t, db.Create(&intruderClientOwner).Error)
	foreign := models.Client{UserID: intruderClientOwner.ID, Name: "Foreign", Email: "f@test"}
	require.NoError(t, db.Create(&foreign).Error)

	svc := NewInvoiceService(db, "https://pay.test")
	_, err := svc.Create(user.ID, foreign.ID, testItems(), InvoiceFields{})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMarkPaidIdempotent(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewInvoiceService(db, "https://pay.test")

	inv, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(inv.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, paid.Status)

	again, err := svc.MarkPaid(inv.ID, user.ID)
	require.NoError(t, err, "second markPaid must not error")
	assert.Equal(t, models.InvoiceStatusPaid, again.Status)
}

func TestSendStampsPaymentLink(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewInvoiceService(db, "https://pay.test")

	inv, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{})
	require.NoError(t, err)

	sent, err := svc.Send(inv.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusSent, sent.Status)
	assert.Equal(t, fmt.Sprintf("https://pay.test/pay/%d", inv.ID), sent.PaymentLink)

	// paid invoices cannot be re-sent
	_, err = svc.MarkPaid(inv.ID, user.ID)
	require.NoError(t, err)
	_, err = svc.Send(inv.ID, user.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestNoTransitionBackToDraft(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewInvoiceService(db, "https://pay.test")

	inv, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{})
	require.NoError(t, err)
	_, err = svc.Send(inv.ID, user.ID)
	require.NoError(t, err)

	draft := models.InvoiceStatusDraft
	_, err = svc.Update(inv.ID, user.ID, InvoicePatch{Status: &draft})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkOverdueOnlyFromSent(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewInvoiceService(db, "https://pay.test")

	inv, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{})
	require.NoError(t, err)

	_, err = svc.MarkOverdue(inv.ID, user.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "draft cannot go overdue")

	_, err = svc.Send(inv.ID, user.ID)
	require.NoError(t, err)
	over, err := svc.MarkOverdue(inv.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusOverdue, over.Status)
}

func TestDeleteCascadesItems(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewInvoiceService(db, "https://pay.test")

	inv, err := svc.Create(user.ID, client.ID, []models.InvoiceItem{
		{Name: "A", Quantity: 1, UnitPrice: 10},
		{Name: "B", Quantity: 2, UnitPrice: 20},
	}, InvoiceFields{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(inv.ID, user.ID))

	var remaining int64
	require.NoError(t, db.Model(&models.InvoiceItem{}).Where("invoice_id = ?", inv.ID).Count(&remaining).Error)
	assert.Zero(t, remaining, "no items remain for the deleted invoice")

	_, err = svc.Get(inv.ID, user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateDoesNotRederiveTotals(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewInvoiceService(db, "https://pay.test")

	inv, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{TaxRate: 10})
	require.NoError(t, err)

	// patching the tax rate alone leaves the stored totals untouched
	newRate := 20.0
	updated, err := svc.Update(inv.ID, user.ID, InvoicePatch{TaxRate: &newRate})
	require.NoError(t, err)
	assert.Equal(t, 20.0, updated.TaxRate)
	assert.InDelta(t, inv.TaxAmount, updated.TaxAmount, 1e-9)
	assert.InDelta(t, inv.Total, updated.Total, 1e-9)
}

func TestUpdateItemsRecomputes(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewInvoiceService(db, "https://pay.test")

	inv, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{TaxRate: 8.5})
	require.NoError(t, err)

	updated, err := svc.UpdateItems(inv.ID, user.ID, []models.InvoiceItem{
		{Name: "Consulting", Quantity: 50, UnitPrice: 50},
	})
	require.NoError(t, err)
	assert.InDelta(t, 2500.0, updated.Subtotal, 1e-9)
	assert.InDelta(t, 212.50, updated.TaxAmount, 1e-9)
	assert.InDelta(t, 2712.50, updated.Total, 1e-9)
	require.Len(t, updated.Items, 1)
}

func TestListOwnershipAndOrder(t *testing.T) {
	db := setupTestDB(t)
	user, client := seedUserAndClient(t, db)
	other := models.User{Email: "other@test", PasswordHash: "x"}
	require.NoError(t, db.Create(&other).Error)
	otherClient := models.Client{UserID: other.ID, Name: "Other", Email: "o@test"}
	require.NoError(t, db.Create(&otherClient).Error)

	svc := NewInvoiceService(db, "https://pay.test")
	first, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{})
	require.NoError(t, err)
	second, err := svc.Create(user.ID, client.ID, testItems(), InvoiceFields{})
	require.NoError(t, err)
	_, err = svc.Create(other.ID, otherClient.ID, testItems(), InvoiceFields{})
	require.NoError(t, err)

	list, err := svc.List(user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2, "only the owner's invoices")
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
	require.NotNil(t, list[0].Client)
	assert.NotEmpty(t, list[0].Items)
}

func TestFilterByStatus(t *testing.T) {
	invoices := []models.Invoice{
		{Number: "a", Status: models.InvoiceStatusOverdue, DueDate: time.Now().Add(time.Hour)},
		{Number: "b", Status: models.InvoiceStatusPaid},
		{Number: "c", Status: models.InvoiceStatusOverdue, DueDate: time.Now().Add(-time.Hour)},
	}
	got := FilterByStatus(invoices, models.InvoiceStatusOverdue)
	require.Len(t, got, 2)
	// stored status only; due dates are irrelevant here
	assert.Equal(t, "a", got[0].Number)
	assert.Equal(t, "c", got[1].Number)
	assert.Empty(t, FilterByStatus(invoices, models.InvoiceStatusDraft))
}
