package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"BloodConnect/pkg/errors"
	"BloodConnect/pkg/whatsapp"
	wamocks "BloodConnect/pkg/whatsapp/mocks"
)

func newTestWhatsApp(t *testing.T) (*WhatsAppService, *wamocks.MockSession) {
	ctrl := gomock.NewController(t)
	session := wamocks.NewMockSession(ctrl)
	svc := NewWhatsAppService(session)
	svc.tryLock = func(ctx context.Context) (func(), bool) { return func() {}, true }
	return svc, session
}

func TestWhatsAppStatus_TriggersBackgroundInit(t *testing.T) {
	svc, session := newTestWhatsApp(t)

	initialized := make(chan struct{})
	session.EXPECT().Status(gomock.Any()).Return(whatsapp.Status{}, nil)
	session.EXPECT().Initialize(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(initialized)
		return nil
	})

	st, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Initializing)

	select {
	case <-initialized:
	case <-time.After(time.Second):
		t.Fatal("Initialize was not called")
	}
}

func TestWhatsAppStatus_ReadyDoesNotInit(t *testing.T) {
	svc, session := newTestWhatsApp(t)
	session.EXPECT().Status(gomock.Any()).Return(whatsapp.Status{Initialized: true, Authenticated: true, Ready: true}, nil)

	st, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Ready)
}

func TestWhatsAppSend(t *testing.T) {
	t.Run("not ready", func(t *testing.T) {
		svc, session := newTestWhatsApp(t)
		session.EXPECT().Status(gomock.Any()).Return(whatsapp.Status{Initialized: true}, nil)

		_, err := svc.Send(context.Background(), "9876543210", "hi")
		assert.ErrorIs(t, err, errors.WhatsAppNotReady)
	})

	t.Run("normalizes and sends", func(t *testing.T) {
		svc, session := newTestWhatsApp(t)
		session.EXPECT().Status(gomock.Any()).Return(whatsapp.Status{Initialized: true, Ready: true}, nil)
		session.EXPECT().Send(gomock.Any(), "+919876543210", "hi").Return("wamid-1", nil)

		id, err := svc.Send(context.Background(), "98765 43210", "hi")
		require.NoError(t, err)
		assert.Equal(t, "wamid-1", id)
	})

	t.Run("gateway failure", func(t *testing.T) {
		svc, session := newTestWhatsApp(t)
		session.EXPECT().Status(gomock.Any()).Return(whatsapp.Status{Ready: true}, nil)
		session.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return("", stderrors.New("502"))

		_, err := svc.Send(context.Background(), "+919876543210", "hi")
		assert.ErrorIs(t, err, errors.WhatsAppFailed)
	})

	t.Run("invalid phone", func(t *testing.T) {
		svc, _ := newTestWhatsApp(t)
		_, err := svc.Send(context.Background(), "12", "hi")
		assert.ErrorIs(t, err, errors.InvalidPhone)
	})
}

func TestWhatsApp_NoSession(t *testing.T) {
	svc := NewWhatsAppService(nil)
	_, err := svc.Status(context.Background())
	assert.ErrorIs(t, err, errors.WhatsAppNotReady)
	assert.ErrorIs(t, svc.Logout(context.Background()), errors.WhatsAppNotReady)
}
