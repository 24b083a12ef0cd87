package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func Test_User_ReliabilityScore(t *testing.T) {
	cases := map[int]string{
		0:  ReliabilityNew,
		1:  ReliabilityGood,
		4:  ReliabilityGood,
		5:  ReliabilityVery,
		9:  ReliabilityVery,
		10: ReliabilityHighest,
		42: ReliabilityHighest,
	}

	for count, want := range cases {
		u := User{SuccessfulTradesCount: count}
		assert.Equal(t, want, u.ReliabilityScore(), "count=%d", count)
	}
}

func Test_Trade_CompletionSatisfied(t *testing.T) {
	swap := &Trade{TradeType: TradeTypeSwap, RecipientConfirmed: true}
	assert.False(t, swap.CompletionSatisfied())

	swap.RequesterConfirmed = true
	assert.True(t, swap.CompletionSatisfied())

	donation := &Trade{TradeType: TradeTypeDonation, RequesterConfirmed: true}
	assert.False(t, donation.CompletionSatisfied())

	donation.RecipientConfirmed = true
	assert.True(t, donation.CompletionSatisfied())
}

func Test_Trade_CloneDoesNotShareBookPointers(t *testing.T) {
	offered := uuid.New()
	orig := &Trade{ID: uuid.New(), OfferedBookID: &offered}

	c := orig.Clone()
	*c.OfferedBookID = uuid.New()

	assert.Equal(t, offered, *orig.OfferedBookID)
}

func Test_TradeFilter_Matches(t *testing.T) {
	me, other := uuid.New(), uuid.New()

	sent := &Trade{RequesterID: me, RecipientID: other, Status: StatusPending, TradeType: TradeTypeSwap}
	received := &Trade{RequesterID: other, RecipientID: me, Status: StatusPending, TradeType: TradeTypeSwap}
	donated := &Trade{RequesterID: other, RecipientID: me, Status: StatusCompleted, TradeType: TradeTypeDonation}
	foreign := &Trade{RequesterID: other, RecipientID: uuid.New(), Status: StatusPending}

	f := func(v TradeView) TradeFilter { return TradeFilter{UserID: me, View: v} }

	assert.True(t, f(ViewAll).Matches(sent))
	assert.False(t, f(ViewAll).Matches(foreign))

	assert.True(t, f(ViewSent).Matches(sent))
	assert.False(t, f(ViewSent).Matches(received))

	assert.True(t, f(ViewReceived).Matches(received))
	assert.True(t, f(ViewPending).Matches(received))
	assert.False(t, f(ViewPending).Matches(sent))

	assert.True(t, f(ViewCompleted).Matches(donated))
	assert.False(t, f(ViewCompleted).Matches(received))

	assert.True(t, f(ViewDonations).Matches(donated))
	assert.False(t, f(ViewDonations).Matches(sent))

	accepted := StatusAccepted
	withStatus := TradeFilter{UserID: me, View: ViewAll, Status: &accepted}
	assert.False(t, withStatus.Matches(sent))
}
