package repository

import (
	"context"
	"testing"
	"time"

	"github.com/choncance/choncance-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var hostProfileColumns = []string{"id", "user_id", "business_number", "contact", "status", "created_at", "updated_at"}

type HostProfileRepoTestSuite struct {
	suite.Suite
	mock      pgxmock.PgxPoolIface
	repo      HostProfileRepository
	userID    uuid.UUID
	profileID uuid.UUID
	now       time.Time
	ctx       context.Context
	req       *domain.HostRequestRequest
}

func (s *HostProfileRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	require.NoError(s.T(), err)
	s.mock = mock
	s.repo = NewHostProfileRepository(mock)
	s.userID = uuid.New()
	s.profileID = uuid.New()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = context.Background()
	s.req = &domain.HostRequestRequest{BusinessNumber: "123-45-67890", Contact: "010-1111-2222"}
}

func (s *HostProfileRepoTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func TestHostProfileRepoTestSuite(t *testing.T) {
	suite.Run(t, new(HostProfileRepoTestSuite))
}

func (s *HostProfileRepoTestSuite) profileRow(status domain.HostStatus) *pgxmock.Rows {
	return pgxmock.NewRows(hostProfileColumns).
		AddRow(s.profileID, s.userID, s.req.BusinessNumber, s.req.Contact, status, s.now, s.now)
}

func (s *HostProfileRepoTestSuite) TestFindByUserID_Missing() {
	s.mock.ExpectQuery(`FROM host_profiles WHERE user_id = \$1`).
		WithArgs(s.userID).
		WillReturnRows(pgxmock.NewRows(hostProfileColumns))

	p, err := s.repo.FindByUserID(s.ctx, s.userID)
	s.NoError(err)
	s.Nil(p)
}

func (s *HostProfileRepoTestSuite) TestCreatePending_Success() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE users SET role = \$2`).
		WithArgs(s.userID, domain.RoleHostPending, domain.RoleGuest).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	s.mock.ExpectQuery(`INSERT INTO host_profiles`).
		WithArgs(s.userID, s.req.BusinessNumber, s.req.Contact, domain.HostStatusPending).
		WillReturnRows(s.profileRow(domain.HostStatusPending))
	s.mock.ExpectCommit()

	p, err := s.repo.CreatePending(s.ctx, s.userID, s.req)
	s.Require().NoError(err)
	s.Equal(domain.HostStatusPending, p.Status)
	s.Equal(s.userID, p.UserID)
}

func (s *HostProfileRepoTestSuite) TestCreatePending_RoleNoLongerGuest() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE users SET role = \$2`).
		WithArgs(s.userID, domain.RoleHostPending, domain.RoleGuest).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	s.mock.ExpectRollback()

	_, err := s.repo.CreatePending(s.ctx, s.userID, s.req)
	s.ErrorIs(err, ErrRoleChanged)
}

func (s *HostProfileRepoTestSuite) TestCreatePending_DuplicateProfile() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE users SET role = \$2`).
		WithArgs(s.userID, domain.RoleHostPending, domain.RoleGuest).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	s.mock.ExpectQuery(`INSERT INTO host_profiles`).
		WithArgs(s.userID, s.req.BusinessNumber, s.req.Contact, domain.HostStatusPending).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "host_profiles_user_id_key"})
	s.mock.ExpectRollback()

	_, err := s.repo.CreatePending(s.ctx, s.userID, s.req)
	s.ErrorIs(err, ErrHostProfileExists)
}

func (s *HostProfileRepoTestSuite) TestListByStatus_ClampsLimit() {
	rows := pgxmock.NewRows(append(append([]string{}, hostProfileColumns...), "email", "name")).
		AddRow(s.profileID, s.userID, s.req.BusinessNumber, s.req.Contact, domain.HostStatusPending, s.now, s.now, "a@x.com", "Kim")

	s.mock.ExpectQuery(`FROM host_profiles h`).
		WithArgs(domain.HostStatusPending, 20, 0).
		WillReturnRows(rows)

	views, err := s.repo.ListByStatus(s.ctx, domain.HostStatusPending, 500, -3)
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal("a@x.com", views[0].Email)
	s.Equal(domain.HostStatusPending, views[0].Status)
}

func (s *HostProfileRepoTestSuite) TestReview_Approve() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT status FROM host_profiles WHERE user_id = \$1 FOR UPDATE`).
		WithArgs(s.userID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.HostStatusPending))
	s.mock.ExpectQuery(`UPDATE host_profiles SET status = \$2`).
		WithArgs(s.userID, domain.HostStatusApproved).
		WillReturnRows(s.profileRow(domain.HostStatusApproved))
	s.mock.ExpectExec(`UPDATE users SET role = \$2, is_host_approved = \$3`).
		WithArgs(s.userID, domain.RoleHost, true).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	s.mock.ExpectCommit()

	p, err := s.repo.Review(s.ctx, s.userID, domain.HostStatusApproved)
	s.Require().NoError(err)
	s.Equal(domain.HostStatusApproved, p.Status)
}

func (s *HostProfileRepoTestSuite) TestReview_RejectReturnsToGuest() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(s.userID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.HostStatusPending))
	s.mock.ExpectQuery(`UPDATE host_profiles SET status = \$2`).
		WithArgs(s.userID, domain.HostStatusRejected).
		WillReturnRows(s.profileRow(domain.HostStatusRejected))
	s.mock.ExpectExec(`UPDATE users SET role = \$2, is_host_approved = \$3`).
		WithArgs(s.userID, domain.RoleGuest, false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	s.mock.ExpectCommit()

	p, err := s.repo.Review(s.ctx, s.userID, domain.HostStatusRejected)
	s.Require().NoError(err)
	s.Equal(domain.HostStatusRejected, p.Status)
}

func (s *HostProfileRepoTestSuite) TestReview_NotPending() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(s.userID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow(domain.HostStatusApproved))
	s.mock.ExpectRollback()

	_, err := s.repo.Review(s.ctx, s.userID, domain.HostStatusRejected)
	s.ErrorIs(err, ErrNotPending)
}

func (s *HostProfileRepoTestSuite) TestReview_NoProfile() {
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(s.userID).
		WillReturnRows(pgxmock.NewRows([]string{"status"}))
	s.mock.ExpectRollback()

	_, err := s.repo.Review(s.ctx, s.userID, domain.HostStatusApproved)
	s.ErrorIs(err, ErrHostProfileNotFound)
}
