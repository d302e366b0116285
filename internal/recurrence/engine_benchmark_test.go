package recurrence

import (
	"testing"
	"time"

	"github.com/example/course-admin/internal/timeutil"
)

func BenchmarkEngine_Occurrences(b *testing.B) {
	loc := timeutil.DefaultLocation()
	engine := NewEngine(loc)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(2, 0, 0)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dates := engine.Occurrences(start, end, time.Wednesday)
		if len(dates) == 0 {
			b.Fatal("expected occurrences")
		}
	}
}
