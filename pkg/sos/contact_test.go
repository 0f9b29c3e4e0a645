package sos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/errs"
	"liyu1981.xyz/sos-response-service/pkg/models"
	_ "liyu1981.xyz/sos-response-service/pkg/testing"
)

func TestContactCRUD(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, _, _, _ := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()

	userID := uuid.NewString()
	second := seedContact(t, s, models.Contact{UserID: userID, Name: "Kai", Priority: 4})
	first := seedContact(t, s, models.Contact{UserID: userID, Name: "Mia", Priority: 1})
	assert.Equal(t, []models.Channel{models.ChannelSMS}, []models.Channel(first.Channels))
	assert.Equal(t, models.RelationshipOther, first.Relationship)

	listed, err := s.Contact.List(ctx, userID)
	require.NoError(t, err)
	ids := common.Mapper(listed, func(c models.Contact) string { return c.ID })
	assert.Equal(t, []string{first.ID, second.ID}, ids)

	dup := models.Contact{UserID: userID, Name: "Mia again", Phone: first.Phone, Priority: 2}
	err = s.Contact.Create(ctx, &dup)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))

	second.Phone = first.Phone
	err = s.Contact.Update(ctx, &second)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))

	updated := first
	updated.Name = "Mia R."
	updated.Priority = 2
	require.NoError(t, s.Contact.Update(ctx, &updated))
	got, err := s.Contact.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mia R.", got.Name)
	assert.Equal(t, 2, got.Priority)

	stranger := updated
	stranger.UserID = uuid.NewString()
	err = s.Contact.Update(ctx, &stranger)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestContactValidation(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, _, _, _ := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()

	userID := uuid.NewString()
	cases := []models.Contact{
		{UserID: userID, Name: "No phone", Priority: 1},
		{UserID: userID, Name: "Zero", Phone: uniquePhone(), Priority: 0},
		{UserID: userID, Name: "Eleven", Phone: uniquePhone(), Priority: 11},
		{UserID: userID, Name: "Pager", Phone: uniquePhone(), Priority: 1, Channels: []models.Channel{"pager"}},
		{UserID: userID, Phone: uniquePhone(), Priority: 1},
		{Name: "Orphan", Phone: uniquePhone(), Priority: 1},
	}
	for _, c := range cases {
		err := s.Contact.Create(ctx, &c)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err), "contact %q", c.Name)
	}
}

func TestContactDeleteThenRestore(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, s, _, _, _ := GetMockSOSWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()
	ctx := context.Background()

	userID := uuid.NewString()
	c := seedContact(t, s, models.Contact{UserID: userID, Name: "Lea", Priority: 3})

	require.NoError(t, s.Contact.Delete(ctx, userID, c.ID))
	_, err := s.Contact.Get(ctx, c.ID)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	err = s.Contact.Delete(ctx, userID, c.ID)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	again := models.Contact{UserID: userID, Name: "Lea", Phone: c.Phone, Priority: 1}
	require.NoError(t, s.Contact.Create(ctx, &again))
	assert.Equal(t, c.ID, again.ID)

	listed, err := s.Contact.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 1, listed[0].Priority)
}
