package sms

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"BloodConnect/pkg/logger"
	"BloodConnect/utils"
)

var ErrNoMessageSID = errors.New("twilio returned no message sid")

// messageCreator 便于测试替换 Twilio REST 调用
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioClient struct {
	api  messageCreator
	from string
}

func NewTwilioClient(accountSID, authToken, from string) (*TwilioClient, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, errors.New("twilio account sid, auth token and phone number are required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioClient{api: client.Api, from: from}, nil
}

func (c *TwilioClient) Provider() string {
	return "twilio"
}

func (c *TwilioClient) Send(ctx context.Context, to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	resp, err := c.api.CreateMessage(params)
	if err != nil {
		var restErr *twilioclient.TwilioRestError
		if errors.As(err, &restErr) {
			logger.Logger.Warn("Twilio rejected SMS",
				zap.String("to", utils.MaskPhone(to)),
				zap.Int("code", restErr.Code),
				zap.Int("status", restErr.Status),
				zap.String("message", restErr.Message),
			)
			return "", fmt.Errorf("twilio error %d: %s", restErr.Code, restErr.Message)
		}
		return "", fmt.Errorf("twilio send: %w", err)
	}

	// 没有 SID 说明消息未被受理
	if resp == nil || resp.Sid == nil || *resp.Sid == "" {
		logger.Logger.Warn("Twilio returned no message SID", zap.String("to", utils.MaskPhone(to)))
		return "", ErrNoMessageSID
	}
	return *resp.Sid, nil
}
