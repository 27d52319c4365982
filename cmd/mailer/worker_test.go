package main

import (
	"context"
	"errors"
	"testing"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []service.Email
	err  error
}

func (f *fakeSender) Send(ctx context.Context, email service.Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

func TestWorker_Handle(t *testing.T) {
	sender := &fakeSender{}
	w := &Worker{sender: sender}
	ctx := context.Background()

	assert.Equal(t, ack, w.handle(ctx, []byte(`{"to":"client@test.com","subject":"Shipment TF-26-00001: Delivered","body":"Delivered"}`)))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "client@test.com", sender.sent[0].To)

	assert.Equal(t, drop, w.handle(ctx, []byte(`not json`)))
	assert.Equal(t, drop, w.handle(ctx, []byte(`{"subject":"no recipient"}`)))

	sender.err = errors.New("smtp down")
	assert.Equal(t, requeue, w.handle(ctx, []byte(`{"to":"client@test.com","subject":"s","body":"b"}`)))
}
