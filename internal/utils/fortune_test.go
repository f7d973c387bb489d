package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDailyFortuneStableWithinDay(t *testing.T) {
	morning := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC)

	a := DailyFortune("u1", morning, time.UTC)
	b := DailyFortune("u1", evening, time.UTC)
	assert.Equal(t, a, b)
	assert.Equal(t, "2024-03-09", a.Date)
	assert.NotEmpty(t, a.Message)
	assert.NotEmpty(t, a.Lucky)
}

func TestDailyFortuneUsesLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	late := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-10", DailyFortune("u1", late, seoul).Date)
}
