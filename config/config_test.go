package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchChannelList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "default", raw: "whatsapp", want: []string{"whatsapp"}},
		{name: "mixed case and spaces", raw: " WhatsApp , sms,EMAIL ", want: []string{"whatsapp", "sms", "email"}},
		{name: "duplicates", raw: "sms,sms,whatsapp", want: []string{"sms", "whatsapp"}},
		{name: "empty", raw: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{DispatchChannels: tt.raw}
			assert.Equal(t, tt.want, c.DispatchChannelList())
		})
	}
}

func TestValidate(t *testing.T) {
	c := Config{DispatchConcurrency: 4}
	assert.ErrorIs(t, c.Validate(), ErrJWTSecretMissing)

	c.JWTSecret = "secret"
	assert.ErrorIs(t, c.Validate(), ErrAdminPasswordUnset)

	c.AdminPasswordHash = "$2a$10$hash"
	assert.NoError(t, c.Validate())

	c.DispatchConcurrency = 0
	assert.ErrorIs(t, c.Validate(), ErrConcurrencyInvalid)
}

func TestGetRabbitMQURL(t *testing.T) {
	c := Config{
		RabbitMQUsername: "guest",
		RabbitMQPassword: "pw",
		RabbitMQAddr:     "mq",
		RabbitMQPort:     "5672",
		RabbitMQVhost:    "/",
	}
	assert.Equal(t, "amqp://guest:pw@mq:5672/", c.GetRabbitMQURL())
}
