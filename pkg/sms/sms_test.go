package sms

import (
	"context"
	"errors"
	"testing"

	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	params *twilioApi.CreateMessageParams
	resp   *twilioApi.ApiV2010Message
	sid    string
	err    error
	raw    bool
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	if f.raw {
		return f.resp, nil
	}
	sid := f.sid
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioClient_Send(t *testing.T) {
	fc := &fakeCreator{sid: "SM123"}
	c := &TwilioClient{api: fc, from: "+15005550006"}

	id, err := c.Send(context.Background(), "+919876543210", "help needed")
	require.NoError(t, err)
	assert.Equal(t, "SM123", id)
	assert.Equal(t, "+919876543210", *fc.params.To)
	assert.Equal(t, "+15005550006", *fc.params.From)
	assert.Equal(t, "help needed", *fc.params.Body)
}

func TestTwilioClient_RestError(t *testing.T) {
	fc := &fakeCreator{err: &twilioclient.TwilioRestError{Code: 21211, Status: 400, Message: "invalid To"}}
	c := &TwilioClient{api: fc, from: "+15005550006"}

	_, err := c.Send(context.Background(), "+91123", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
}

func TestTwilioClient_TransportError(t *testing.T) {
	boom := errors.New("connection reset")
	c := &TwilioClient{api: &fakeCreator{err: boom}, from: "+15005550006"}

	_, err := c.Send(context.Background(), "+919876543210", "x")
	assert.ErrorIs(t, err, boom)
}

func TestTwilioClient_MissingSIDIsFailure(t *testing.T) {
	tests := []struct {
		name string
		fc   *fakeCreator
	}{
		{name: "nil response", fc: &fakeCreator{raw: true}},
		{name: "nil sid", fc: &fakeCreator{raw: true, resp: &twilioApi.ApiV2010Message{}}},
		{name: "empty sid", fc: &fakeCreator{sid: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &TwilioClient{api: tt.fc, from: "+15005550006"}
			id, err := c.Send(context.Background(), "+919876543210", "x")
			assert.ErrorIs(t, err, ErrNoMessageSID)
			assert.Empty(t, id)
		})
	}
}

func TestNewTwilioClient_RequiresCredentials(t *testing.T) {
	_, err := NewTwilioClient("", "token", "+1")
	assert.Error(t, err)
}

func TestParseAliyunResponse(t *testing.T) {
	id, err := parseAliyunResponse(map[string]interface{}{
		"statusCode": 200,
		"body":       map[string]interface{}{"Code": "OK", "BizId": "biz-1"},
	}, "+919876543210")
	require.NoError(t, err)
	assert.Equal(t, "biz-1", id)

	_, err = parseAliyunResponse(map[string]interface{}{
		"statusCode": 200,
		"body":       map[string]interface{}{"Code": "isv.BUSINESS_LIMIT_CONTROL", "Message": "limit"},
	}, "+919876543210")
	assert.ErrorContains(t, err, "isv.BUSINESS_LIMIT_CONTROL")

	_, err = parseAliyunResponse(map[string]interface{}{"statusCode": 500}, "+919876543210")
	assert.ErrorContains(t, err, "statusCode=500")
}

func TestMockClient(t *testing.T) {
	m := NewMockClient()
	m.FailFor["+910000000000"] = true

	_, err := m.Send(context.Background(), "+910000000000", "a")
	assert.Error(t, err)
	id, err := m.Send(context.Background(), "+919876543210", "b")
	require.NoError(t, err)
	assert.Equal(t, "mock-2", id)
	assert.Len(t, m.Sent(), 2)
}
