package repository

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

const maxCodeAttempts = 10

// randomDigits 返回 [0, n) 的随机数，测试中可替换
type randomDigits func(n int) int

// FormatRFQReference RFQ-{yyyy}-{5位}
func FormatRFQReference(t time.Time, n int) string {
	return fmt.Sprintf("RFQ-%04d-%05d", t.Year(), n)
}

// FormatTrackingNumber TF-{yy}-{5位}
func FormatTrackingNumber(t time.Time, n int) string {
	return fmt.Sprintf("TF-%s-%05d", t.Format("06"), n)
}

// FormatAmendmentCode AMD-{yyyy}-{5位}
func FormatAmendmentCode(t time.Time, n int) string {
	return fmt.Sprintf("AMD-%04d-%05d", t.Year(), n)
}

// generateUnique 生成随机编号并校验唯一性，最多尝试 maxCodeAttempts 次
func generateUnique(ctx context.Context, rnd randomDigits, format func(int) string, exists func(context.Context, string) (bool, error)) (string, error) {
	if rnd == nil {
		rnd = rand.Intn
	}
	for i := 0; i < maxCodeAttempts; i++ {
		code := format(rnd(100000))
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}
