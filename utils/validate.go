package utils

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
)

// ValidateEmail 与前端表单一致的宽松邮箱校验
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// ValidatePhone 校验归一化后的号码是否为 E.164
func ValidatePhone(phone string, defaultCountryCode string) bool {
	return phonePattern.MatchString(NormalizePhone(phone, defaultCountryCode))
}

// NormalizePhone 把输入号码转换为 E.164：
// 10 位裸号补默认国家码，12 位且以国家码开头的补 "+"，其余缺 "+" 的直接补 "+"
func NormalizePhone(raw string, defaultCountryCode string) string {
	phone := strings.Join(strings.Fields(raw), "")
	phone = strings.NewReplacer("-", "", "(", "", ")", "").Replace(phone)
	if phone == "" {
		return ""
	}

	if strings.HasPrefix(phone, "+") {
		return phone
	}

	if len(phone) == 10 {
		return "+" + defaultCountryCode + phone
	}

	if len(phone) == 10+len(defaultCountryCode) && strings.HasPrefix(phone, defaultCountryCode) {
		return "+" + phone
	}

	return "+" + phone
}

// MaskPhone 日志中只保留末四位
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
