package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "1 second"},
		{time.Second, "1 second"},
		{5 * time.Second, "5 seconds"},
		{time.Minute, "1 minute"},
		{time.Minute + 45*time.Second, "2 minutes"},
		{59*time.Minute + 45*time.Second, "1 hour"},
		{time.Hour, "1 hour"},
		{3*time.Hour + 40*time.Minute, "4 hours"},
		{23*time.Hour + 40*time.Minute, "1 day"},
		{24 * time.Hour, "1 day"},
		{36 * time.Hour, "2 days"},
		{7 * 24 * time.Hour, "7 days"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, Duration(test.d), "duration %s", test.d)
	}
}
