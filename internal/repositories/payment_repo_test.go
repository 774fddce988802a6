package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"rentledger/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type PaymentRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      PaymentRepository
	tenantID  uuid.UUID
	paymentID uuid.UUID
	context   context.Context
}

func (suite *PaymentRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewPaymentRepo(mock)
	suite.tenantID = uuid.New()
	suite.paymentID = uuid.New()
	suite.context = context.Background()
}

func (suite *PaymentRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestPaymentRepoTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentRepoTestSuite))
}

func paymentColumns() []string {
	return []string{"id", "tenant_id", "amount_cents", "method", "note", "reference", "status", "created_at"}
}

func (suite *PaymentRepoTestSuite) TestCreate_Success() {
	payment := &models.Payment{
		ID:          suite.paymentID,
		TenantID:    suite.tenantID,
		AmountCents: 150000,
		Method:      "manual",
		Status:      models.PaymentStatusPaid,
	}

	suite.mock.ExpectExec(`INSERT INTO payments`).
		WithArgs(payment.ID, payment.TenantID, payment.AmountCents, payment.Method, payment.Note, payment.Reference, payment.Status).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.Create(suite.context, payment)
	assert.NoError(suite.T(), err)
}

func (suite *PaymentRepoTestSuite) TestCreate_DatabaseError() {
	payment := &models.Payment{
		ID:          suite.paymentID,
		TenantID:    suite.tenantID,
		AmountCents: 5000,
		Method:      "manual",
		Status:      models.PaymentStatusPaid,
	}

	suite.mock.ExpectExec(`INSERT INTO payments`).
		WithArgs(payment.ID, payment.TenantID, payment.AmountCents, payment.Method, payment.Note, payment.Reference, payment.Status).
		WillReturnError(errors.New("database connection failed"))

	err := suite.repo.Create(suite.context, payment)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "database connection failed")
}

func (suite *PaymentRepoTestSuite) TestGetByID_NotFound() {
	suite.mock.ExpectQuery(`SELECT id, tenant_id, amount_cents, method, note, reference, status, created_at`).
		WithArgs(suite.paymentID).
		WillReturnError(pgx.ErrNoRows)

	payment, err := suite.repo.GetByID(suite.context, suite.paymentID)
	assert.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, pgx.ErrNoRows)
	assert.Nil(suite.T(), payment)
}

func (suite *PaymentRepoTestSuite) TestListByTenant_NewestFirst() {
	now := time.Now()
	earlier := now.Add(-time.Hour)
	rows := pgxmock.NewRows(paymentColumns()).
		AddRow(uuid.New(), suite.tenantID, int64(150000), "checkout", nil, stringPtr("evt_1"), "paid", now).
		AddRow(uuid.New(), suite.tenantID, int64(7500), "manual", stringPtr("cash"), nil, "paid", earlier)

	suite.mock.ExpectQuery(`ORDER BY created_at DESC`).
		WithArgs(suite.tenantID, 10, 0).
		WillReturnRows(rows)

	payments, err := suite.repo.ListByTenant(suite.context, suite.tenantID, 10, 0)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), payments, 2)
	assert.Equal(suite.T(), "checkout", payments[0].Method)
	assert.Equal(suite.T(), "manual", payments[1].Method)
}

func (suite *PaymentRepoTestSuite) TestSumPaid_OnlySettledRows() {
	suite.mock.ExpectQuery(`status = 'paid'`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(300000)))

	total, err := suite.repo.SumPaid(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(300000), total)
}

func (suite *PaymentRepoTestSuite) TestSumPaid_NoPayments() {
	suite.mock.ExpectQuery(`status = 'paid'`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(0)))

	total, err := suite.repo.SumPaid(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(0), total)
}

func (suite *PaymentRepoTestSuite) TestLastPaymentAt_Success() {
	last := time.Now().Add(-48 * time.Hour)

	suite.mock.ExpectQuery(`SELECT MAX\(created_at\) FROM payments`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(&last))

	result, err := suite.repo.LastPaymentAt(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), result)
	assert.WithinDuration(suite.T(), last, *result, time.Second)
}

func (suite *PaymentRepoTestSuite) TestLastPaymentAt_NoPayments() {
	// MAX over zero rows is NULL, not an error
	suite.mock.ExpectQuery(`SELECT MAX\(created_at\) FROM payments`).
		WithArgs(suite.tenantID).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(nil))

	result, err := suite.repo.LastPaymentAt(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), result)
}

func (suite *PaymentRepoTestSuite) TestExistsByReference_Duplicate() {
	suite.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("evt_12345").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := suite.repo.ExistsByReference(suite.context, "evt_12345")
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), exists)
}

func (suite *PaymentRepoTestSuite) TestExistsByReference_FirstDelivery() {
	suite.mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("evt_67890").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := suite.repo.ExistsByReference(suite.context, "evt_67890")
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), exists)
}

func (suite *PaymentRepoTestSuite) TestDeleteByTenant_Success() {
	suite.mock.ExpectExec(`DELETE FROM payments WHERE tenant_id = \$1`).
		WithArgs(suite.tenantID).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	err := suite.repo.DeleteByTenant(suite.context, suite.tenantID)
	assert.NoError(suite.T(), err)
}
