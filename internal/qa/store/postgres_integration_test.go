//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	identity "sankalp/internal/identity/models"
	identitystore "sankalp/internal/identity/store"
	"sankalp/internal/qa/models"
	"sankalp/internal/qa/store"
	id "sankalp/pkg/domain"
	"sankalp/pkg/platform/sentinel"
	"sankalp/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres    *containers.PostgresContainer
	store       *store.Postgres
	beneficiary id.ActorID
	advocate    id.ActorID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "questions", "actors"))
	actors := identitystore.NewPostgres(s.postgres.DB)
	mk := func(name string, role identity.Role) id.ActorID {
		a := &identity.Actor{Username: name, Email: name + "@example.org", PasswordHash: "x", Role: role, CreatedAt: time.Now()}
		s.Require().NoError(actors.Create(ctx, a))
		return a.ID
	}
	s.beneficiary = mk("asha", identity.RoleBeneficiary)
	s.advocate = mk("meera", identity.RoleAdvocate)
}

func (s *PostgresStoreSuite) TestAnswerOnce() {
	ctx := context.Background()
	q := &models.Question{Domain: id.DomainLegal, AskedBy: s.beneficiary, Question: "Can my landlord evict me?",
		AllowAnonymous: true, Status: models.StatusPending, CreatedAt: time.Now()}
	s.Require().NoError(s.store.Create(ctx, q))

	s.Require().NoError(s.store.Answer(ctx, q.ID, "Not without notice.", s.advocate, time.Now()))
	s.ErrorIs(s.store.Answer(ctx, q.ID, "Second answer", s.advocate, time.Now()), sentinel.ErrInvalidState)
	s.ErrorIs(s.store.Answer(ctx, 9999, "x", s.advocate, time.Now()), sentinel.ErrNotFound)

	got, err := s.store.FindByID(ctx, q.ID)
	s.Require().NoError(err)
	s.Equal("Not without notice.", got.Answer)
	s.Equal(models.StatusAnswered, got.Status)
	s.Require().NotNil(got.AnsweredBy)
	s.Equal(s.advocate, *got.AnsweredBy)
	s.True(got.AllowAnonymous)

	answered, err := s.store.ListByDomain(ctx, id.DomainLegal, models.StatusAnswered)
	s.Require().NoError(err)
	s.Len(answered, 1)

	other, err := s.store.ListByDomain(ctx, id.DomainWomenSupport)
	s.Require().NoError(err)
	s.Empty(other)
}
