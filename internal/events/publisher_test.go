package events

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilfund/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherAndWorker_DeliverToStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := NewPublisher(WithLogger(discardLogger()))
	store := NewInMemoryStore()
	worker := NewWorker(store, nil, pub.Inbox(), discardLogger())
	go func() { _ = worker.Run(ctx) }()

	campaignID := domain.CampaignID("c1")
	pub.Emit(ctx, Event{Type: TypeCampaignCreated, CampaignID: campaignID})

	require.Eventually(t, func() bool {
		got, err := store.ListByCampaign(ctx, campaignID)
		return err == nil && len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	got, err := store.ListByCampaign(ctx, campaignID)
	require.NoError(t, err)
	assert.Equal(t, TypeCampaignCreated, got[0].Type)
	assert.False(t, got[0].Timestamp.IsZero())
	assert.NotEqual(t, "", got[0].ID.String())
}

func TestPublisher_DropsWhenBufferFull(t *testing.T) {
	ctx := context.Background()
	// No worker draining: a one-slot buffer overflows on the second emit.
	pub := NewPublisher(WithLogger(discardLogger()), WithBuffer(1))

	pub.Emit(ctx, Event{Type: TypeCampaignCreated})
	pub.Emit(ctx, Event{Type: TypeCampaignUpdated})

	assert.Equal(t, 1, len(pub.inbox))
}
