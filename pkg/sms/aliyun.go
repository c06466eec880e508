package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	openapiutil "github.com/alibabacloud-go/openapi-util/service"
	util "github.com/alibabacloud-go/tea-utils/v2/service"
	"github.com/alibabacloud-go/tea/tea"
	credential "github.com/aliyun/credentials-go/credentials"
	"go.uber.org/zap"

	"BloodConnect/pkg/logger"
	"BloodConnect/utils"
)

// AliyunClient 阿里云短信，消息正文通过模板变量 ${content} 传入
type AliyunClient struct {
	client       *openapi.Client
	signName     string
	templateCode string
}

// NewAliyunClient 凭据通过 ALIBABA_CLOUD_ACCESS_KEY_ID / ALIBABA_CLOUD_ACCESS_KEY_SECRET 获取
func NewAliyunClient(signName, templateCode string) (*AliyunClient, error) {
	if signName == "" || templateCode == "" {
		return nil, errors.New("aliyun sign name and template code are required")
	}

	cred, err := credential.NewCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun credential: %w", err)
	}

	client, err := openapi.NewClient(&openapi.Config{
		Credential: cred,
		Endpoint:   tea.String("dysmsapi.aliyuncs.com"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aliyun client: %w", err)
	}

	return &AliyunClient{
		client:       client,
		signName:     signName,
		templateCode: templateCode,
	}, nil
}

func (c *AliyunClient) Provider() string {
	return "aliyun"
}

func (c *AliyunClient) Send(ctx context.Context, to, body string) (string, error) {
	param, err := json.Marshal(map[string]string{"content": body})
	if err != nil {
		return "", fmt.Errorf("failed to marshal template param: %w", err)
	}

	params := &openapi.Params{
		Action:      tea.String("SendSms"),
		Version:     tea.String("2017-05-25"),
		Protocol:    tea.String("HTTPS"),
		Method:      tea.String("POST"),
		AuthType:    tea.String("AK"),
		Style:       tea.String("RPC"),
		Pathname:    tea.String("/"),
		ReqBodyType: tea.String("json"),
		BodyType:    tea.String("json"),
	}

	// 国际短信号码不带 "+"
	queries := map[string]interface{}{
		"PhoneNumbers":  tea.String(strings.TrimPrefix(to, "+")),
		"SignName":      tea.String(c.signName),
		"TemplateCode":  tea.String(c.templateCode),
		"TemplateParam": tea.String(string(param)),
	}

	resp, err := c.client.CallApi(params, &openapi.OpenApiRequest{
		Query: openapiutil.Query(queries),
	}, &util.RuntimeOptions{})
	if err != nil {
		return "", fmt.Errorf("aliyun send: %w", err)
	}

	return parseAliyunResponse(resp, to)
}

// parseAliyunResponse 成功时返回 BizId
func parseAliyunResponse(resp map[string]interface{}, to string) (string, error) {
	if code, ok := resp["statusCode"].(int); ok && code != 200 {
		return "", fmt.Errorf("aliyun SMS API error: statusCode=%d", code)
	}

	raw, ok := resp["body"]
	if !ok || raw == nil {
		return "", errors.New("aliyun SMS API returned empty body")
	}

	bodyBytes, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("aliyun SMS body: %w", err)
	}

	var body struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
		BizID   string `json:"BizId"`
	}
	if err := json.Unmarshal(bodyBytes, &body); err != nil {
		return "", fmt.Errorf("aliyun SMS body: %w", err)
	}

	if body.Code != "OK" {
		logger.Logger.Warn("Aliyun rejected SMS",
			zap.String("to", utils.MaskPhone(to)),
			zap.String("code", body.Code),
			zap.String("message", body.Message),
		)
		return "", fmt.Errorf("aliyun SMS failed: %s - %s", body.Code, body.Message)
	}

	return body.BizID, nil
}
