package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BloodConnect/internal/model"
	"BloodConnect/internal/service"
	"BloodConnect/pkg/errors"
	"BloodConnect/storage/mq"
	"BloodConnect/storage/redis"
)

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	redis.SetClient(client)
	return mr
}

func delivery(t *testing.T, msg model.EmergencyDispatchMessage) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	return amqp.Delivery{Body: body, MessageId: msg.MessageID}
}

func TestRunner_Submit(t *testing.T) {
	type published struct {
		exchange, routingKey, messageID string
		body                            model.EmergencyDispatchMessage
	}
	var got []published

	r := &Runner{
		nextID: func() (string, error) { return "msg-abc", nil },
		publish: func(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error {
			got = append(got, published{exchange, routingKey, messageID, body.(model.EmergencyDispatchMessage)})
			return nil
		},
	}

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, r.Submit(context.Background(), service.DispatchTask{RequestID: 42, SubmittedAt: at}))

	require.Len(t, got, 1)
	assert.Equal(t, mq.NotifyExchange, got[0].exchange)
	assert.Equal(t, mq.EmergencyDispatchRoute, got[0].routingKey)
	assert.Equal(t, "msg-abc", got[0].messageID)
	assert.Equal(t, int64(42), got[0].body.RequestID)
	assert.Equal(t, "2026-01-02T03:04:05Z", got[0].body.SubmittedAt)
	assert.Equal(t, service.ModeMQ, r.Mode())
}

func TestRunner_SubmitPublishError(t *testing.T) {
	r := &Runner{
		nextID: func() (string, error) { return "msg-1", nil },
		publish: func(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error {
			return mq.ErrNotConnected
		},
	}

	err := r.Submit(context.Background(), service.DispatchTask{RequestID: 1})
	assert.ErrorIs(t, err, errors.DispatchSubmitFailed)
	assert.ErrorIs(t, err, mq.ErrNotConnected)
}

func TestHandleEmergencyDispatch_DedupRedelivery(t *testing.T) {
	mr := setupRedis(t)
	var calls []int64
	h := HandleEmergencyDispatch(func(ctx context.Context, requestID int64) error {
		calls = append(calls, requestID)
		return nil
	})

	d := delivery(t, model.EmergencyDispatchMessage{MessageID: "msg-1", RequestID: 7})
	require.NoError(t, h(context.Background(), d))

	v, err := mr.Get("bc:message:processed:msg-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", v)

	err = h(context.Background(), d)
	var skip *errors.SkipMessageError
	assert.ErrorAs(t, err, &skip)
	assert.Equal(t, []int64{7}, calls)

	// 新的提交带新的 MessageID，会再次分发
	require.NoError(t, h(context.Background(), delivery(t, model.EmergencyDispatchMessage{MessageID: "msg-2", RequestID: 7})))
	assert.Equal(t, []int64{7, 7}, calls)
}

func TestHandleEmergencyDispatch_TransientFailureAllowsRetry(t *testing.T) {
	mr := setupRedis(t)
	fail := true
	h := HandleEmergencyDispatch(func(ctx context.Context, requestID int64) error {
		if fail {
			return stderrors.New("db timeout")
		}
		return nil
	})

	d := delivery(t, model.EmergencyDispatchMessage{MessageID: "msg-3", RequestID: 1})
	err := h(context.Background(), d)
	require.Error(t, err)
	var skip *errors.SkipMessageError
	assert.False(t, stderrors.As(err, &skip))
	assert.False(t, mr.Exists("bc:message:processed:msg-3"))

	fail = false
	assert.NoError(t, h(context.Background(), d))
}

func TestHandleEmergencyDispatch_BusinessErrorIsSkipped(t *testing.T) {
	setupRedis(t)
	h := HandleEmergencyDispatch(func(ctx context.Context, requestID int64) error {
		return errors.EmergencyNotFound
	})

	err := h(context.Background(), delivery(t, model.EmergencyDispatchMessage{MessageID: "msg-4", RequestID: 1}))
	var skip *errors.SkipMessageError
	require.ErrorAs(t, err, &skip)
	assert.Equal(t, "EMERGENCY_NOT_FOUND", skip.Reason)
}

func TestHandleEmergencyDispatch_BadBody(t *testing.T) {
	setupRedis(t)
	h := HandleEmergencyDispatch(func(ctx context.Context, requestID int64) error { return nil })
	assert.Error(t, h(context.Background(), amqp.Delivery{Body: []byte("{")}))
}
