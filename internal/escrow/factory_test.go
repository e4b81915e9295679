package escrow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CollabraChain/escrow-backend/internal/ledger"
	"github.com/CollabraChain/escrow-backend/internal/models"
	"github.com/CollabraChain/escrow-backend/internal/pkg/apperror"
	"github.com/CollabraChain/escrow-backend/internal/reputation"
)

func TestNewFactory_BindsRegistry(t *testing.T) {
	l := ledger.NewLedger()
	reg := reputation.NewRegistry()

	f, err := NewFactory(l, reg, nil)
	require.NoError(t, err)

	_, err = reg.Mint(uuid.New(), uuid.New(), uuid.New(), models.CredentialRoleCreator, "ref")
	assert.True(t, apperror.IsForbidden(err))

	_, err = reg.Mint(f.ID(), uuid.New(), uuid.New(), models.CredentialRoleCreator, "ref")
	assert.NoError(t, err)
}

func TestNewFactory_RegistryAlreadyBound(t *testing.T) {
	l := ledger.NewLedger()
	reg := reputation.NewRegistry()
	_, err := NewFactory(l, reg, nil)
	require.NoError(t, err)

	_, err = NewFactory(l, reg, nil)
	assert.Error(t, err)
}

func TestNewFactory_NilDependencies(t *testing.T) {
	l := ledger.NewLedger()
	reg := reputation.NewRegistry()

	_, err := NewFactory(nil, reg, nil)
	assert.Error(t, err)

	_, err = NewFactory(l, nil, nil)
	assert.Error(t, err)
}

func TestFactory_CreateProject_Registers(t *testing.T) {
	fx := newFixture(t)

	first := fx.openProject(t)
	second := fx.openProject(t)

	assert.Equal(t, 2, fx.factory.ProjectCount())
	assert.True(t, fx.factory.IsProject(first.ID()))
	assert.True(t, fx.factory.IsProject(second.ID()))
	assert.False(t, fx.factory.IsProject(uuid.New()))

	atZero, err := fx.factory.ProjectAt(0)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), atZero.ID())

	atOne, err := fx.factory.ProjectAt(1)
	require.NoError(t, err)
	assert.Equal(t, second.ID(), atOne.ID())

	assert.Equal(t, []uuid.UUID{first.ID(), second.ID()}, fx.factory.Projects())

	got, err := fx.factory.Project(first.ID())
	require.NoError(t, err)
	assert.Same(t, first, got)

	assert.Equal(t, 2, fx.sink.countOf(models.EventProjectCreated))
}

func TestFactory_CreateProject_InvalidMetaNotRegistered(t *testing.T) {
	fx := newFixture(t)
	meta := testMeta()
	meta.Deadline = meta.Deadline.AddDate(-1, 0, 0)

	_, err := fx.factory.CreateProject(fx.creator, meta)
	assert.Error(t, err)
	assert.Equal(t, 0, fx.factory.ProjectCount())
	assert.Equal(t, 0, fx.sink.countOf(models.EventProjectCreated))
}

func TestFactory_ProjectAt_OutOfRange(t *testing.T) {
	fx := newFixture(t)
	fx.openProject(t)

	_, err := fx.factory.ProjectAt(1)
	assert.True(t, apperror.IsNotFound(err))

	_, err = fx.factory.ProjectAt(-1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestFactory_Project_NotFound(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.factory.Project(uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestFactory_MintRelay_NonMember(t *testing.T) {
	fx := newFixture(t)
	fx.openProject(t)

	err := fx.factory.MintReputationForProject(uuid.New(), uuid.New(), uuid.New(), models.CredentialRoleCreator, "ref")
	assert.True(t, apperror.IsForbidden(err))
}

func TestFactory_MintRelay_ForwardsVerbatim(t *testing.T) {
	fx := newFixture(t)
	p := fx.openProject(t)
	recipient := uuid.New()
	subject := uuid.New()

	err := fx.factory.MintReputationForProject(p.ID(), recipient, subject, "Auditor", "sha256:audit")
	require.NoError(t, err)

	creds := fx.registry.CredentialsByRecipient(recipient)
	require.Len(t, creds, 1)
	assert.Equal(t, subject, creds[0].Subject)
	assert.Equal(t, "Auditor", creds[0].Role)
	assert.Equal(t, "sha256:audit", creds[0].MetadataRef)
}

func TestFactory_MintRelay_RegistryValidationPropagates(t *testing.T) {
	fx := newFixture(t)
	p := fx.openProject(t)

	err := fx.factory.MintReputationForProject(p.ID(), uuid.New(), uuid.New(), models.CredentialRoleCreator, "")
	assert.True(t, apperror.IsValidation(err))
}

func TestFactory_RoomIndex(t *testing.T) {
	fx := newFixture(t)

	metaA := testMeta()
	metaA.RoomToken = "room-alpha"
	metaB := testMeta()
	metaB.RoomToken = "room-alpha"
	metaC := testMeta()
	metaC.RoomToken = "room-beta"
	metaD := testMeta()
	metaD.RoomToken = ""

	a, err := fx.factory.CreateProject(fx.creator, metaA)
	require.NoError(t, err)
	b, err := fx.factory.CreateProject(fx.creator, metaB)
	require.NoError(t, err)
	c, err := fx.factory.CreateProject(fx.creator, metaC)
	require.NoError(t, err)
	d, err := fx.factory.CreateProject(fx.creator, metaD)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{a.ID(), b.ID()}, fx.factory.ProjectsByRoom("room-alpha"))
	assert.Equal(t, []uuid.UUID{c.ID()}, fx.factory.ProjectsByRoom("room-beta"))
	assert.Empty(t, fx.factory.ProjectsByRoom("room-unknown"))

	token, ok := fx.factory.RoomOfProject(a.ID())
	assert.True(t, ok)
	assert.Equal(t, "room-alpha", token)

	_, ok = fx.factory.RoomOfProject(d.ID())
	assert.False(t, ok)
}
